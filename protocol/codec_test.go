package protocol

import (
	"strings"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"presence-lab/domain"
)

func validState() domain.PlayerState {
	return domain.PlayerState{
		Name:     "Alice",
		Color:    "#FF0000",
		Position: domain.Vec3{10, 0, 5},
		Rotation: domain.IdentityRotation,
	}
}

func Test_Decode_Join(t *testing.T) {
	req := require.New(t)

	raw := []byte(`{"type":"Join","room_id":"r1","name":"Alice","color":"#FF0000"}`)
	msg, perr := DecodeClient(raw)

	req.Nil(perr)
	req.Equal(Join{RoomID: lo.ToPtr("r1"), Name: lo.ToPtr("Alice"), Color: lo.ToPtr("#FF0000")}, msg)
}

func Test_Decode_Update(t *testing.T) {
	req := require.New(t)

	raw := []byte(`{"type":"Update","state":{"name":"Alice","color":"#00ff00","position":[1,2,3],"rotation":[1,0,0,0]}}`)
	msg, perr := DecodeClient(raw)

	req.Nil(perr)
	update, ok := msg.(Update)
	req.True(ok)
	req.Equal("Alice", update.State.Name)
	req.Equal(domain.Vec3{1, 2, 3}, update.State.Position)
	req.Nil(update.State.Velocity)
}

func Test_Decode_Chat(t *testing.T) {
	req := require.New(t)

	msg, perr := DecodeClient([]byte(`{"type":"Chat","message":"hello"}`))

	req.Nil(perr)
	req.Equal(Chat{Message: lo.ToPtr("hello")}, msg)
}

func Test_Decode_Rejects_Invalid_JSON(t *testing.T) {
	req := require.New(t)

	msg, perr := DecodeClient([]byte(`{"type":"Join",`))

	req.Nil(msg)
	req.NotNil(perr)
	req.Equal(KindMalformedMessage, perr.Kind)
}

func Test_Decode_Rejects_Unknown_Type(t *testing.T) {
	req := require.New(t)

	msg, perr := DecodeClient([]byte(`{"type":"Teleport","x":1}`))

	req.Nil(msg)
	req.NotNil(perr)
	req.Equal(KindMalformedMessage, perr.Kind)
}

func Test_Decode_Rejects_Missing_Required_Field(t *testing.T) {
	req := require.New(t)

	// A Join without a room_id is malformed, not merely invalid.
	msg, perr := DecodeClient([]byte(`{"type":"Join","name":"Alice","color":"#FF0000"}`))

	req.Nil(msg)
	req.NotNil(perr)
	req.Equal(KindMalformedMessage, perr.Kind)
}

func Test_Decode_Empty_Present_Field_Is_A_Constraint_Violation(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantField string
	}{
		{name: "empty room_id", raw: `{"type":"Join","room_id":"","name":"Alice","color":"#FF0000"}`, wantField: "room_id"},
		{name: "empty name", raw: `{"type":"Join","room_id":"r1","name":"","color":"#FF0000"}`, wantField: "name"},
		{name: "empty chat message", raw: `{"type":"Chat","message":""}`, wantField: "message"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)

			// A field that is present but empty violates a constraint; only
			// an absent field makes the frame malformed.
			msg, perr := DecodeClient([]byte(tc.raw))

			req.Nil(msg)
			req.NotNil(perr)
			req.Equal(KindValidationError, perr.Kind)
			req.Contains(perr.Fields, tc.wantField)
		})
	}
}

func Test_Decode_Reports_Offending_Field(t *testing.T) {
	req := require.New(t)

	msg, perr := DecodeClient([]byte(`{"type":"Join","room_id":"r1","name":"Alice","color":"red"}`))

	req.Nil(msg)
	req.NotNil(perr)
	req.Equal(KindValidationError, perr.Kind)
	req.Contains(perr.Fields, "color")
}

func Test_Chat_Length_Boundary(t *testing.T) {
	req := require.New(t)

	// Given a message of exactly 1000 characters
	accepted := Chat{Message: lo.ToPtr(strings.Repeat("a", 1000))}
	raw, err := EncodeClient(accepted)
	req.NoError(err)

	// Then it decodes verbatim
	msg, perr := DecodeClient(raw)
	req.Nil(perr)
	req.Equal(accepted, msg)

	// And one character more is rejected on the message field
	tooLong, err := EncodeClient(Chat{Message: lo.ToPtr(strings.Repeat("a", 1001))})
	req.NoError(err)
	msg, perr = DecodeClient(tooLong)
	req.Nil(msg)
	req.NotNil(perr)
	req.Equal(KindValidationError, perr.Kind)
	req.Contains(perr.Fields, "message")
}

func Test_Client_Roundtrip(t *testing.T) {
	req := require.New(t)

	velocity := domain.Vec3{0.5, -0.5, 0}
	messages := []ClientMessage{
		Join{RoomID: lo.ToPtr("lobby"), Name: lo.ToPtr("Héloïse"), Color: lo.ToPtr("#a1B2c3")},
		Update{State: domain.PlayerState{
			Name:      "Héloïse",
			Color:     "#a1B2c3",
			Position:  domain.Vec3{-999.5, 1000, 0.25},
			Rotation:  domain.Quat{0.7071, 0, 0.7071, 0},
			Animation: "wave",
			Velocity:  &velocity,
			ModelURL:  "https://example.com/model.glb",
		}},
		Chat{Message: lo.ToPtr("héllo 👋 " + strings.Repeat("よ", 500))},
	}

	for _, original := range messages {
		raw, err := EncodeClient(original)
		req.NoError(err)

		decoded, perr := DecodeClient(raw)
		req.Nil(perr)
		req.Equal(original, decoded)
	}
}

func Test_Server_Roundtrip(t *testing.T) {
	req := require.New(t)

	at := time.Date(2025, 6, 1, 12, 30, 45, 123456789, time.UTC)
	history := []domain.ChatMessage{{
		ID:        "3f2e6c1a-0000-0000-0000-000000000001",
		RoomID:    "lobby",
		ClientID:  "conn-1",
		Username:  "Alice",
		Message:   "hi 👋",
		Timestamp: at,
	}}
	messages := []ServerMessage{
		Welcome{
			ClientID:    "conn-2",
			RoomState:   []RoomStateEntry{{ID: "conn-1", State: validState()}},
			ChatHistory: history,
		},
		PlayerJoined{ClientID: "conn-2", State: validState()},
		PlayerUpdate{ClientID: "conn-2", State: validState()},
		PlayerLeft{ClientID: "conn-2"},
		ChatMessage{ClientID: "conn-1", Name: "Alice", Message: "hé", Timestamp: at},
		Error{Message: "validation failed on fields: color"},
	}

	for _, original := range messages {
		raw, err := EncodeServer(original)
		req.NoError(err)

		decoded, err := DecodeServer(raw)
		req.NoError(err)
		req.Equal(original, decoded)
	}
}

func Test_RoomState_Encoded_As_Pairs(t *testing.T) {
	req := require.New(t)

	raw, err := EncodeServer(Welcome{
		ClientID:  "c1",
		RoomState: []RoomStateEntry{{ID: "c1", State: validState()}},
	})
	req.NoError(err)

	// The wire contract uses [[id, state], ...] pairs, not objects.
	req.Contains(string(raw), `"room_state":[["c1",{`)
	req.Contains(string(raw), `"type":"Welcome"`)
}
