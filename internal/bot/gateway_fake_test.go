package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// fakeGateway is an in-memory Gateway double recording every side effect.
type fakeGateway struct {
	mu sync.Mutex

	botID    string
	messages map[string]*Message // message id -> message

	sent             []string // embed message ids, in post order
	nextID           int
	edits            []string // message ids edited
	deleted          []string // message ids deleted
	notices          []string
	reactionsAdded   []string // "messageID/emoji"
	reactionsRemoved []string // "messageID/emoji/userID"

	fetchErr  error
	removeErr error
	editErr   error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		botID:    "bot-user",
		messages: make(map[string]*Message),
	}
}

func (g *fakeGateway) BotUserID() string { return g.botID }

func (g *fakeGateway) putMessage(id, authorID string, embeds ...*discordgo.MessageEmbed) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages[id] = &Message{ID: id, ChannelID: "chan-1", AuthorID: authorID, Embeds: embeds}
}

func (g *fakeGateway) FetchMessage(_ context.Context, _, messageID string) (*Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	m, ok := g.messages[messageID]
	if !ok {
		return nil, ErrMessageNotFound
	}
	return m, nil
}

func (g *fakeGateway) SendEmbed(_ context.Context, channelID string, embed *discordgo.MessageEmbed) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	id := fmt.Sprintf("posted-%d", g.nextID)
	g.messages[id] = &Message{ID: id, ChannelID: channelID, AuthorID: g.botID, Embeds: []*discordgo.MessageEmbed{embed}}
	g.sent = append(g.sent, id)
	return id, nil
}

func (g *fakeGateway) EditEmbed(_ context.Context, _, messageID string, embed *discordgo.MessageEmbed) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.editErr != nil {
		return g.editErr
	}
	if m, ok := g.messages[messageID]; ok {
		m.Embeds = []*discordgo.MessageEmbed{embed}
	}
	g.edits = append(g.edits, messageID)
	return nil
}

func (g *fakeGateway) DeleteMessage(_ context.Context, _, messageID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, messageID)
	return nil
}

func (g *fakeGateway) AddReaction(_ context.Context, _, messageID, emoji string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reactionsAdded = append(g.reactionsAdded, messageID+"/"+emoji)
	return nil
}

func (g *fakeGateway) RemoveUserReaction(_ context.Context, _, messageID, emoji, userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.removeErr != nil {
		return g.removeErr
	}
	g.reactionsRemoved = append(g.reactionsRemoved, messageID+"/"+emoji+"/"+userID)
	return nil
}

func (g *fakeGateway) Notify(_ context.Context, _, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.notices = append(g.notices, text)
	return nil
}

func (g *fakeGateway) noticeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.notices)
}

func (g *fakeGateway) editCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.edits)
}

func (g *fakeGateway) removedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.reactionsRemoved)
}
