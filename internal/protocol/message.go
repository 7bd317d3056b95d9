package protocol

import "time"

// Kind discriminates the payload union. Exactly one kind is active per envelope.
type Kind string

const (
	KindText               Kind = "text"
	KindFile               Kind = "file"
	KindImage              Kind = "image"
	KindUserConnected      Kind = "user_connected"
	KindUserDisconnected   Kind = "user_disconnected"
	KindUsernameChanged    Kind = "username_changed"
	KindColorChanged       Kind = "color_changed"
	KindRecoverableError   Kind = "recoverable_error"
	KindUnrecoverableError Kind = "unrecoverable_error"
	KindLoginRequest       Kind = "login_request"
	KindLoginResponse      Kind = "login_response"
	KindRegisterRequest    Kind = "register_request"
	KindRegisterResponse   Kind = "register_response"
	KindHistoryRequest     Kind = "history_request"
	KindHistoryResponse    Kind = "history_response"
)

// Known reports whether k is a kind this protocol version understands.
func (k Kind) Known() bool {
	switch k {
	case KindText, KindFile, KindImage,
		KindUserConnected, KindUserDisconnected,
		KindUsernameChanged, KindColorChanged,
		KindRecoverableError, KindUnrecoverableError,
		KindLoginRequest, KindLoginResponse,
		KindRegisterRequest, KindRegisterResponse,
		KindHistoryRequest, KindHistoryResponse:
		return true
	}
	return false
}

// IsResponse reports whether k is a server-to-client-only kind. Response
// kinds are delivered only to the requester and are a direction violation
// when received from a client.
func (k Kind) IsResponse() bool {
	switch k {
	case KindLoginResponse, KindRegisterResponse, KindHistoryResponse:
		return true
	}
	return false
}

// RGB is a username color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// White is the color assigned to users without a stored color preference.
var White = RGB{R: 255, G: 255, B: 255}

// UserInfo identifies the author of an envelope. ID 0 means the session has
// not authenticated yet.
type UserInfo struct {
	ID       int32  `json:"id"`
	Username string `json:"username"`
	Color    RGB    `json:"color"`
}

// AnonymousUsername is the display name of a session before login.
const AnonymousUsername = "<anonymous user>"

// AnonymousUser returns the UserInfo every session starts with.
func AnonymousUser() UserInfo {
	return UserInfo{ID: 0, Username: AnonymousUsername, Color: White}
}

// HistoryEntry is one archived text message with its author as persisted at
// query time.
type HistoryEntry struct {
	Text   string   `json:"text"`
	Author UserInfo `json:"author"`
}

// Payload is the tagged union carried by an envelope. Kind selects which of
// the optional fields are meaningful; the rest stay at their zero value.
type Payload struct {
	Kind Kind `json:"kind"`

	// Text carries the message body for Text and the description for the
	// two error kinds.
	Text string `json:"text,omitempty"`

	// FileName and Data carry File contents; Image uses Data alone.
	FileName string `json:"file_name,omitempty"`
	Data     []byte `json:"data,omitempty"`

	// Username carries the name for UsernameChanged and the credentials
	// (with Password, and Color for registration) for LoginRequest and
	// RegisterRequest.
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Color    *RGB   `json:"color,omitempty"`

	// User is the resolved account for LoginResponse and RegisterResponse;
	// nil means the request was rejected.
	User *UserInfo `json:"user,omitempty"`

	// History carries the HistoryResponse entries.
	History []HistoryEntry `json:"history,omitempty"`
}

// Envelope is one protocol message unit. Envelopes are immutable once
// constructed; server-side transformations build a new one.
type Envelope struct {
	Payload   Payload   `json:"payload"`
	Author    UserInfo  `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEnvelope stamps a payload with its author and the current time.
func NewEnvelope(p Payload, author UserInfo) Envelope {
	return Envelope{
		Payload:   p,
		Author:    author,
		Timestamp: time.Now().UTC(),
	}
}

// Payload constructors. Clients and the session handler build payloads only
// through these so the field conventions stay in one place.

func TextPayload(text string) Payload {
	return Payload{Kind: KindText, Text: text}
}

func FilePayload(name string, data []byte) Payload {
	return Payload{Kind: KindFile, FileName: name, Data: data}
}

func ImagePayload(data []byte) Payload {
	return Payload{Kind: KindImage, Data: data}
}

func UserConnectedPayload() Payload {
	return Payload{Kind: KindUserConnected}
}

func UserDisconnectedPayload() Payload {
	return Payload{Kind: KindUserDisconnected}
}

func UsernameChangedPayload(username string) Payload {
	return Payload{Kind: KindUsernameChanged, Username: username}
}

func ColorChangedPayload(color RGB) Payload {
	return Payload{Kind: KindColorChanged, Color: &color}
}

func RecoverableErrorPayload(reason string) Payload {
	return Payload{Kind: KindRecoverableError, Text: reason}
}

func UnrecoverableErrorPayload(reason string) Payload {
	return Payload{Kind: KindUnrecoverableError, Text: reason}
}

func LoginRequestPayload(username, password string) Payload {
	return Payload{Kind: KindLoginRequest, Username: username, Password: password}
}

func LoginResponsePayload(user *UserInfo) Payload {
	return Payload{Kind: KindLoginResponse, User: user}
}

func RegisterRequestPayload(username, password string, color RGB) Payload {
	return Payload{Kind: KindRegisterRequest, Username: username, Password: password, Color: &color}
}

func RegisterResponsePayload(user *UserInfo) Payload {
	return Payload{Kind: KindRegisterResponse, User: user}
}

func HistoryRequestPayload() Payload {
	return Payload{Kind: KindHistoryRequest}
}

func HistoryResponsePayload(entries []HistoryEntry) Payload {
	return Payload{Kind: KindHistoryResponse, History: entries}
}
