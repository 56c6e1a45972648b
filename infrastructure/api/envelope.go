package api

import (
	"bytes"
	"encoding/json"

	"useradmin/models"
)

// The list endpoint answers in one of three envelopes depending on which
// backend build is deployed: a bare array, a {content:[...]} wrapper, or a
// HAL-style {_embedded:{users:[...]}} wrapper. Normalization is total; an
// unrecognized shape yields the empty variant instead of an error.
type envelopeKind int

const (
	envelopeUnknown envelopeKind = iota
	envelopeBareArray
	envelopeContent
	envelopeEmbedded
)

type userListEnvelope struct {
	Kind  envelopeKind
	Users []models.User
}

func decodeUserList(raw []byte) userListEnvelope {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return userListEnvelope{Kind: envelopeUnknown, Users: []models.User{}}
	}

	if raw[0] == '[' {
		var users []models.User
		if err := json.Unmarshal(raw, &users); err == nil {
			return userListEnvelope{Kind: envelopeBareArray, Users: users}
		}
		return userListEnvelope{Kind: envelopeUnknown, Users: []models.User{}}
	}

	var wrapped struct {
		Content  json.RawMessage `json:"content"`
		Embedded struct {
			Users []models.User `json:"users"`
		} `json:"_embedded"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return userListEnvelope{Kind: envelopeUnknown, Users: []models.User{}}
	}

	if wrapped.Embedded.Users != nil {
		return userListEnvelope{Kind: envelopeEmbedded, Users: wrapped.Embedded.Users}
	}

	if len(wrapped.Content) > 0 && bytes.TrimSpace(wrapped.Content)[0] == '[' {
		var users []models.User
		if err := json.Unmarshal(wrapped.Content, &users); err == nil {
			return userListEnvelope{Kind: envelopeContent, Users: users}
		}
	}

	return userListEnvelope{Kind: envelopeUnknown, Users: []models.User{}}
}

// decodeUserRecord handles the single-record variants: a bare record or a
// {content: record} wrapper.
func decodeUserRecord(raw []byte) (models.User, error) {
	var wrapped struct {
		Content *models.User `json:"content"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Content != nil {
		return *wrapped.Content, nil
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}
