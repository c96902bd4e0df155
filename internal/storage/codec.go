package storage

import (
	"encoding/json"
	"errors"

	"ternion/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeMatrix(m model.Matrix) ([]byte, error) {
	return json.Marshal(m)
}

func DecodeMatrix(data []byte) (model.Matrix, error) {
	var m model.Matrix
	if err := json.Unmarshal(data, &m); err != nil {
		return model.Matrix{}, err
	}
	if err := checkVersion(m.VersionedRecord); err != nil {
		return model.Matrix{}, err
	}
	return m, nil
}

func EncodeSurvey(record model.SurveyRecord) ([]byte, error) {
	return json.Marshal(record)
}

func DecodeSurvey(data []byte) (model.SurveyRecord, error) {
	var record model.SurveyRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.SurveyRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.SurveyRecord{}, err
	}
	return record, nil
}

func EncodeTestResult(result model.TestResult) ([]byte, error) {
	return json.Marshal(result)
}

func DecodeTestResult(data []byte) (model.TestResult, error) {
	var result model.TestResult
	if err := json.Unmarshal(data, &result); err != nil {
		return model.TestResult{}, err
	}
	if err := checkVersion(result.VersionedRecord); err != nil {
		return model.TestResult{}, err
	}
	return result, nil
}

// Stamp sets the current schema and codec versions on a record before it
// is persisted.
func Stamp() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: CurrentSchemaVersion,
		CodecVersion:  CurrentCodecVersion,
	}
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
