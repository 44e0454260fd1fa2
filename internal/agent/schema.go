package agent

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/felkru/farkle/internal/game"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/move.json
var moveSchemaJSON []byte

const moveSchemaURL = "https://farkle.dev/schemas/move.json"

var (
	moveSchemaOnce sync.Once
	moveSchema     *jsonschema.Schema
	moveSchemaErr  error
)

func compiledMoveSchema() (*jsonschema.Schema, error) {
	moveSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(moveSchemaURL, bytes.NewReader(moveSchemaJSON)); err != nil {
			moveSchemaErr = fmt.Errorf("failed to add move schema: %w", err)
			return
		}
		moveSchema, moveSchemaErr = compiler.Compile(moveSchemaURL)
	})
	return moveSchema, moveSchemaErr
}

// MoveSchema returns the move JSON schema as a generic map, for APIs that take
// a response schema inline.
func MoveSchema() map[string]any {
	var m map[string]any
	if err := json.Unmarshal(moveSchemaJSON, &m); err != nil {
		panic("agent: embedded move schema is invalid: " + err.Error())
	}
	delete(m, "$schema")
	delete(m, "$id")
	delete(m, "title")
	return m
}

// DecodeMove validates data against the move schema and converts it. Every
// failure wraps ErrMalformedResponse.
func DecodeMove(data []byte) (game.Move, error) {
	schema, err := compiledMoveSchema()
	if err != nil {
		return game.Move{}, err
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return game.Move{}, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedResponse, err)
	}
	if err := schema.Validate(raw); err != nil {
		return game.Move{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var resp MoveResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return game.Move{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	move, err := resp.Move()
	if err != nil {
		return game.Move{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return move, nil
}
