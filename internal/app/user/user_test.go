package user

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const template = "https://api.dicebear.com/7.x/initials/svg?seed=%s"

func TestAvatarFor(t *testing.T) {
	req := require.New(t)

	req.Equal("https://api.dicebear.com/7.x/initials/svg?seed=alice", AvatarFor(template, "alice"))
	req.Equal("https://api.dicebear.com/7.x/initials/svg?seed=Jane+Doe%26Co", AvatarFor(template, "Jane Doe&Co"))

	// Same name, same avatar.
	req.Equal(AvatarFor(template, "bob"), AvatarFor(template, "bob"))
}

func TestParticipant_WireFormat(t *testing.T) {
	req := require.New(t)

	p := Participant{ID: "p1", ConnectionID: "c1", DisplayName: "alice", AvatarRef: "a", Online: true}
	raw, err := json.Marshal(p)
	req.NoError(err)

	req.JSONEq(`{"id":"p1","socketId":"c1","username":"alice","avatar":"a","online":true}`, string(raw))
}
