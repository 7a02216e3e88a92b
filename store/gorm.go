package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Gorm is the MySQL-backed Store implementation.
type Gorm struct {
	db *gorm.DB
}

var _ Store = (*Gorm)(nil)

// Open connects to MySQL and migrates the schema.
func Open(dsn string) (*Gorm, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&User{}, &Conversation{}, &Message{}, &UsageLog{}, &Agent{}); err != nil {
		return nil, err
	}
	return &Gorm{db: db}, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}

// CreateUser inserts an account record.
func (g *Gorm) CreateUser(ctx context.Context, u *User) error {
	return translate(g.db.WithContext(ctx).Create(u).Error)
}

// UserByEmail looks up an account by email.
func (g *Gorm) UserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	if err := g.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// UserByID looks up an account by id.
func (g *Gorm) UserByID(ctx context.Context, id string) (*User, error) {
	var u User
	if err := g.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// UpdateUser saves the full account record.
func (g *Gorm) UpdateUser(ctx context.Context, u *User) error {
	return translate(g.db.WithContext(ctx).Save(u).Error)
}

// ListUsers returns all accounts in creation order.
func (g *Gorm) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := g.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

// AddCredits adjusts the credit balance atomically at the row level.
func (g *Gorm) AddCredits(ctx context.Context, userID string, delta float64) error {
	res := g.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", userID).
		Update("credits", gorm.Expr("credits + ?", delta))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateConversation inserts a thread record.
func (g *Gorm) CreateConversation(ctx context.Context, c *Conversation) error {
	return translate(g.db.WithContext(ctx).Create(c).Error)
}

// Conversation returns the thread only when owned by userID.
func (g *Gorm) Conversation(ctx context.Context, userID, id string) (*Conversation, error) {
	var c Conversation
	err := g.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// ListConversations returns the user's threads, most recently updated first.
func (g *Gorm) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	var convs []Conversation
	err := g.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Find(&convs).Error
	if err != nil {
		return nil, translate(err)
	}
	return convs, nil
}

// UpdateConversation saves the full thread record.
func (g *Gorm) UpdateConversation(ctx context.Context, c *Conversation) error {
	return translate(g.db.WithContext(ctx).Save(c).Error)
}

// DeleteConversation removes the thread and cascades to its messages.
func (g *Gorm) DeleteConversation(ctx context.Context, userID, id string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&Conversation{})
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return translate(tx.Where("conversation_id = ?", id).Delete(&Message{}).Error)
	})
}

// CreateMessage appends to the transcript and refreshes the owning
// conversation's preview.
func (g *Gorm) CreateMessage(ctx context.Context, m *Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return translate(err)
		}
		return translate(tx.Model(&Conversation{}).
			Where("id = ?", m.ConversationID).
			Updates(map[string]any{
				"preview":    PreviewText(m.Content),
				"updated_at": m.CreatedAt,
			}).Error)
	})
}

// Message looks up a transcript record by id.
func (g *Gorm) Message(ctx context.Context, id string) (*Message, error) {
	var m Message
	if err := g.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// ListMessages returns the transcript in creation order.
func (g *Gorm) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	var msgs []Message
	err := g.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at").
		Find(&msgs).Error
	if err != nil {
		return nil, translate(err)
	}
	return msgs, nil
}

// UpdateMessage saves the full transcript record (feedback, pin).
func (g *Gorm) UpdateMessage(ctx context.Context, m *Message) error {
	return translate(g.db.WithContext(ctx).Save(m).Error)
}

// AppendUsage inserts an accounting record.
func (g *Gorm) AppendUsage(ctx context.Context, l *UsageLog) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	return translate(g.db.WithContext(ctx).Create(l).Error)
}

// ListUsage returns a user's accounting records, newest first.
func (g *Gorm) ListUsage(ctx context.Context, userID string) ([]UsageLog, error) {
	var logs []UsageLog
	err := g.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&logs).Error
	if err != nil {
		return nil, translate(err)
	}
	return logs, nil
}

// CreateAgent inserts a custom agent row; duplicate per-user ids conflict.
func (g *Gorm) CreateAgent(ctx context.Context, a *Agent) error {
	var existing Agent
	err := g.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", a.ID, a.UserID).
		First(&existing).Error
	if err == nil {
		return ErrConflict
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return translate(err)
	}
	return translate(g.db.WithContext(ctx).Create(a).Error)
}

// AgentByID looks up a custom agent scoped to its owner.
func (g *Gorm) AgentByID(ctx context.Context, userID, id string) (*Agent, error) {
	var a Agent
	err := g.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&a).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// ListAgents returns the user's custom agents in creation order.
func (g *Gorm) ListAgents(ctx context.Context, userID string) ([]Agent, error) {
	var agents []Agent
	err := g.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&agents).Error
	if err != nil {
		return nil, translate(err)
	}
	return agents, nil
}

// UpdateAgent saves the full custom agent row.
func (g *Gorm) UpdateAgent(ctx context.Context, a *Agent) error {
	return translate(g.db.WithContext(ctx).Save(a).Error)
}

// DeleteAgent removes a custom agent row.
func (g *Gorm) DeleteAgent(ctx context.Context, userID, id string) error {
	res := g.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Agent{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
