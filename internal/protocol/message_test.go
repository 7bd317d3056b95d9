package protocol

import "testing"

func TestKind_Known(t *testing.T) {
	for _, p := range samplePayloads() {
		if !p.Kind.Known() {
			t.Errorf("Known(%s) = false, want true", p.Kind)
		}
	}
	if Kind("teleport").Known() {
		t.Error("Known(teleport) = true, want false")
	}
	if Kind("").Known() {
		t.Error("Known of empty kind = true, want false")
	}
}

func TestKind_IsResponse(t *testing.T) {
	responses := map[Kind]bool{
		KindLoginResponse:    true,
		KindRegisterResponse: true,
		KindHistoryResponse:  true,
	}
	for _, p := range samplePayloads() {
		if got := p.Kind.IsResponse(); got != responses[p.Kind] {
			t.Errorf("IsResponse(%s) = %v, want %v", p.Kind, got, responses[p.Kind])
		}
	}
}

func TestAnonymousUser(t *testing.T) {
	u := AnonymousUser()
	if u.ID != 0 {
		t.Errorf("ID = %d, want 0", u.ID)
	}
	if u.Username != "<anonymous user>" {
		t.Errorf("Username = %q, want %q", u.Username, "<anonymous user>")
	}
	if u.Color != White {
		t.Errorf("Color = %+v, want white", u.Color)
	}
}

func TestNewEnvelope_StampsAuthorAndTime(t *testing.T) {
	author := alice()
	env := NewEnvelope(TextPayload("hi"), author)

	if env.Author != author {
		t.Errorf("Author = %+v, want %+v", env.Author, author)
	}
	if env.Timestamp.IsZero() {
		t.Error("Timestamp is zero")
	}
}
