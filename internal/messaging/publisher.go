package messaging

import (
	"fmt"
	"strings"
)

// SubjectAnnounce carries messages shown to every connected player.
const SubjectAnnounce = "quest.announce"

// Publisher sends raw payloads to a subject.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// HUDSubject is where a session's HUD frames are mirrored.
func HUDSubject(sessionId string) string {
	return fmt.Sprintf("quest.hud.%s", sessionId)
}

// Announcer broadcasts plain text announcements.
type Announcer struct {
	pub Publisher
}

func NewAnnouncer(pub Publisher) *Announcer {
	return &Announcer{pub: pub}
}

// Announce publishes msg to every player. A nil Announcer drops it.
func (a *Announcer) Announce(msg string) error {
	if a == nil || a.pub == nil {
		return nil
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return nil
	}
	return a.pub.Publish(SubjectAnnounce, []byte(msg))
}
