package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldCandidate is the structured log field key for the candidate identifier.
	FieldCandidate = "candidate_id"
	// FieldPosting is the structured log field key for the external posting identifier.
	FieldPosting = "posting_id"
	// FieldApplication is the structured log field key for the application record identifier.
	FieldApplication = "application_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// If the logger is nil or no fields are supplied, the input logger is returned
// unchanged, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// ApplicationFields returns the standard zap fields identifying one
// application attempt. Empty values are ignored to keep entries compact.
func ApplicationFields(candidateID, postingID, applicationID string) []zap.Field {
	return StringFields(
		StringField{Key: FieldCandidate, Value: candidateID},
		StringField{Key: FieldPosting, Value: postingID},
		StringField{Key: FieldApplication, Value: applicationID},
	)
}

// WithApplicationFields attaches the standard application fields to the logger.
func WithApplicationFields(logger *zap.Logger, candidateID, postingID, applicationID string) *zap.Logger {
	return WithFields(logger, ApplicationFields(candidateID, postingID, applicationID)...)
}
