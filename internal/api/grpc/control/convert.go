package control

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/monitor-switcher/internal/domain/machine"
)

// Response field names.
const (
	FieldMachine     = "machine"
	FieldInput       = "input"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldCurrent     = "current"
	FieldLastScore   = "last_score"
	FieldFailures    = "failures"
	FieldLastOutcome = "last_outcome"
)

var (
	// errMalformedResponse is returned when a response misses required fields.
	errMalformedResponse = errors.New("malformed control response")
	// errRemote carries an error message reported by the server.
	errRemote = errors.New("switch failed")
)

// OutcomeToStruct converts a switch outcome to its wire form.
func OutcomeToStruct(outcome machine.Outcome) (*structpb.Struct, error) {
	return structpb.NewStruct(outcomeFields(outcome))
}

// OutcomeFromStruct converts the wire form back to an outcome. A reported
// error is restored as an error wrapping errRemote.
func OutcomeFromStruct(message *structpb.Struct) (machine.Outcome, error) {
	fields := message.GetFields()

	value, ok := fields[FieldMachine]
	if !ok {
		return machine.Outcome{}, fmt.Errorf("%w: missing %s", errMalformedResponse, FieldMachine)
	}

	id, err := machine.Parse(value.GetStringValue())
	if err != nil {
		return machine.Outcome{}, fmt.Errorf("%w: %w", errMalformedResponse, err)
	}

	outcome := machine.Outcome{
		Machine: id,
		Input:   fields[FieldInput].GetStringValue(),
		Success: fields[FieldSuccess].GetBoolValue(),
	}

	if message := fields[FieldError].GetStringValue(); message != "" {
		outcome.Err = fmt.Errorf("%w: %s", errRemote, message)
	}

	return outcome, nil
}

// StatusToStruct converts a process status to its wire form.
func StatusToStruct(status machine.Status) (*structpb.Struct, error) {
	fields := map[string]any{
		FieldCurrent:   status.Current.String(),
		FieldInput:     status.Input,
		FieldLastScore: int(status.LastScore),
		FieldFailures:  status.Failures,
	}

	if status.LastOutcome != nil {
		fields[FieldLastOutcome] = outcomeFields(*status.LastOutcome)
	}

	return structpb.NewStruct(fields)
}

// StatusFromStruct converts the wire form back to a status.
func StatusFromStruct(message *structpb.Struct) (machine.Status, error) {
	fields := message.GetFields()

	value, ok := fields[FieldCurrent]
	if !ok {
		return machine.Status{}, fmt.Errorf("%w: missing %s", errMalformedResponse, FieldCurrent)
	}

	current, err := machine.Parse(value.GetStringValue())
	if err != nil {
		return machine.Status{}, fmt.Errorf("%w: %w", errMalformedResponse, err)
	}

	status := machine.Status{
		Current:   current,
		Input:     fields[FieldInput].GetStringValue(),
		LastScore: machine.Score(fields[FieldLastScore].GetNumberValue()),
		Failures:  int(fields[FieldFailures].GetNumberValue()),
	}

	if nested := fields[FieldLastOutcome].GetStructValue(); nested != nil {
		outcome, err := OutcomeFromStruct(nested)
		if err != nil {
			return machine.Status{}, fmt.Errorf("%s: %w", FieldLastOutcome, err)
		}

		status.LastOutcome = &outcome
	}

	return status, nil
}

func outcomeFields(outcome machine.Outcome) map[string]any {
	fields := map[string]any{
		FieldMachine: outcome.Machine.String(),
		FieldInput:   outcome.Input,
		FieldSuccess: outcome.Success,
	}

	if outcome.Err != nil {
		fields[FieldError] = outcome.Err.Error()
	}

	return fields
}
