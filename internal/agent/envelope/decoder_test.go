package envelope

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"souschef/internal/errors"
)

type recipePayload struct {
	RequiredItems []string `json:"required_items"`
	ResultSteps   []string `json:"result_steps"`
}

func (p *recipePayload) Validate() error {
	if len(p.RequiredItems) == 0 {
		return fmt.Errorf("required_items is empty")
	}
	if len(p.ResultSteps) == 0 {
		return fmt.Errorf("result_steps is empty")
	}
	return nil
}

const flatRecipe = `{"required_items":["eggs","guanciale"],"result_steps":["boil pasta","mix"]}`

func wrapOnce(inner string) string {
	envelope := map[string]any{
		"content": []map[string]any{{"type": "text", "text": inner}},
	}
	data, _ := json.Marshal(envelope)
	return string(data)
}

func TestDecodeFlatPayload(t *testing.T) {
	var payload recipePayload
	require.NoError(t, Decode(flatRecipe, &payload))
	assert.Equal(t, []string{"eggs", "guanciale"}, payload.RequiredItems)
	assert.Equal(t, []string{"boil pasta", "mix"}, payload.ResultSteps)
}

func TestDecodeOneLevelNested(t *testing.T) {
	var payload recipePayload
	require.NoError(t, Decode(wrapOnce(flatRecipe), &payload))
	assert.Equal(t, []string{"eggs", "guanciale"}, payload.RequiredItems)
}

func TestDecodeTwoLevelNested(t *testing.T) {
	var payload recipePayload
	require.NoError(t, Decode(wrapOnce(wrapOnce(flatRecipe)), &payload))
	assert.Equal(t, []string{"eggs", "guanciale"}, payload.RequiredItems)
}

func TestDecodeIdempotence(t *testing.T) {
	// Decoding an already-flat payload must equal decoding it wrapped once more
	var flat, wrapped recipePayload
	require.NoError(t, Decode(flatRecipe, &flat))
	require.NoError(t, Decode(wrapOnce(flatRecipe), &wrapped))
	assert.Equal(t, flat, wrapped)
}

func TestDecodeFailurePayloadFlat(t *testing.T) {
	raw := `{"error_kind":"service_error","message":"dish not found","details":{"known":["pasta carbonara"]}}`

	var payload recipePayload
	err := Decode(raw, &payload)
	require.Error(t, err)
	assert.True(t, errors.IsService(err))
	assert.Equal(t, "dish not found", errors.UserMessage(err, ""))
	assert.Contains(t, errors.Details(err), "known")
}

func TestDecodeFailureNeverMisreadAsSuccess(t *testing.T) {
	failure := `{"error_kind":"service_error","message":"order rejected"}`

	for depth, raw := range []string{failure, wrapOnce(failure), wrapOnce(wrapOnce(failure))} {
		var payload recipePayload
		err := Decode(raw, &payload)
		require.Errorf(t, err, "depth %d", depth)
		assert.Truef(t, errors.IsService(err), "depth %d", depth)
	}
}

func TestDecodeLegacyErrorTypeMarker(t *testing.T) {
	raw := `{"error_type":"validation_error","message":"recipient is required"}`

	var payload recipePayload
	err := Decode(raw, &payload)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestDecodeRepairsAlmostJSON(t *testing.T) {
	// Trailing comma is the classic serializer slip
	raw := `{"required_items":["eggs",],"result_steps":["mix"],}`

	var payload recipePayload
	require.NoError(t, Decode(raw, &payload))
	assert.Equal(t, []string{"eggs"}, payload.RequiredItems)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	var payload recipePayload
	err := Decode("not even close to json", &payload)
	require.Error(t, err)
	assert.True(t, errors.IsDecode(err))
}

func TestDecodeRejectsEmptyResponse(t *testing.T) {
	var payload recipePayload
	err := Decode("   ", &payload)
	require.Error(t, err)
	assert.True(t, errors.IsDecode(err))
}

func TestDecodeRejectsShapeMismatch(t *testing.T) {
	var payload recipePayload
	err := Decode(`{"missing_items":["eggs"]}`, &payload)
	require.Error(t, err)
	assert.True(t, errors.IsDecode(err))
}

func TestDecodeRejectsExcessNesting(t *testing.T) {
	raw := wrapOnce(wrapOnce(wrapOnce(flatRecipe)))

	var payload recipePayload
	err := Decode(raw, &payload)
	require.Error(t, err)
	assert.True(t, errors.IsDecode(err))
}
