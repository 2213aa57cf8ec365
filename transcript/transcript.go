// Package transcript persists session traffic to a SQL database through
// GORM. SQLite, MySQL and PostgreSQL are supported.
package transcript

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/presbrey/ircclient/irc"
)

// Entry kinds
const (
	KindMessage = "message"
	KindNotice  = "notice"
	KindAction  = "action"
	KindJoin    = "join"
	KindPart    = "part"
	KindKick    = "kick"
	KindQuit    = "quit"
	KindNick    = "nick"
	KindTopic   = "topic"
	KindSystem  = "system"
	KindError   = "error"
)

var ErrUnknownDriver = errors.New("transcript: unknown driver")

// Entry is one recorded line
type Entry struct {
	ID        uint   `gorm:"primaryKey"`
	Session   string `gorm:"size:36;index"`
	Kind      string `gorm:"size:16"`
	Sender    string `gorm:"size:255"`
	Target    string `gorm:"size:255"`
	TargetKey string `gorm:"size:255;index"`
	Text      string
	CreatedAt time.Time `gorm:"index"`
}

// Store writes entries for one client run
type Store struct {
	db      *gorm.DB
	session string
	now     func() time.Time
}

// databases caches open handles by driver and DSN so stores opened for
// several sessions share one pool
var (
	databasesMu sync.Mutex
	databases   = make(map[string]*gorm.DB)
)

// Dialector returns the GORM dialector for a driver name
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return sqlite.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
}

// Open connects to the database, migrating the schema on first use
func Open(driver, dsn string) (*Store, error) {
	key := driver + "|" + dsn

	databasesMu.Lock()
	defer databasesMu.Unlock()

	if db, ok := databases[key]; ok {
		return newStore(db), nil
	}

	dialector, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript database: %w", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate transcript database: %w", err)
	}

	databases[key] = db
	return newStore(db), nil
}

// New wraps an existing connection, migrating the schema
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate transcript database: %w", err)
	}
	return newStore(db), nil
}

func newStore(db *gorm.DB) *Store {
	return &Store{
		db:      db,
		session: uuid.NewString(),
		now:     time.Now,
	}
}

// SessionID identifies the entries written by this store
func (s *Store) SessionID() string {
	return s.session
}

// Record writes one entry. Target may be empty for server-wide text.
func (s *Store) Record(kind string, sender, target irc.Entity, text string) error {
	entry := Entry{
		Session:   s.session,
		Kind:      kind,
		Sender:    sender.Label(),
		Target:    target.Label(),
		TargetKey: target.Key(),
		Text:      text,
		CreatedAt: s.now(),
	}
	return s.db.Create(&entry).Error
}

// Recent returns up to limit entries for target, oldest first
func (s *Store) Recent(target string, limit int) ([]Entry, error) {
	var entries []Entry
	err := s.db.
		Where("target_key = ?", irc.EntityFromText(target).Key()).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Attach subscribes the store to a session's events. Hooks run on the
// session's owner goroutine, so writes are serialized with event delivery.
func (s *Store) Attach(events *irc.Events) {
	message := func(kind string) func(irc.MessageEvent) error {
		return func(e irc.MessageEvent) error {
			return s.Record(kind, e.Sender, e.Target, e.Text.String())
		}
	}
	events.TextReceived.Subscribe(message(KindMessage))
	events.NoticeReceived.Subscribe(message(KindNotice))
	events.ActionReceived.Subscribe(message(KindAction))

	member := func(kind string) func(irc.MemberEvent) error {
		return func(e irc.MemberEvent) error {
			text := e.Reason.String()
			if kind == KindKick {
				text = fmt.Sprintf("kicked by %s: %s", e.By.Label(), text)
			}
			return s.Record(kind, e.Nick, e.Channel.Name(), text)
		}
	}
	events.UserJoined.Subscribe(member(KindJoin))
	events.UserParted.Subscribe(member(KindPart))
	events.UserKicked.Subscribe(member(KindKick))
	events.UserQuit.Subscribe(member(KindQuit))

	events.NickChanged.Subscribe(func(e irc.NickChangeEvent) error {
		return s.Record(KindNick, e.Old, irc.Entity{}, e.New.Label())
	})
	events.TopicUpdated.Subscribe(func(e irc.TopicEvent) error {
		ch := e.Channel
		return s.Record(KindTopic, ch.TopicAuthor().Entity, ch.Name(), ch.Topic().String())
	})
	events.SystemText.Subscribe(func(e irc.TextEvent) error {
		return s.Record(KindSystem, irc.Entity{}, irc.Entity{}, e.Text)
	})
	events.ErrorText.Subscribe(func(e irc.TextEvent) error {
		return s.Record(KindError, irc.Entity{}, irc.Entity{}, e.Text)
	})
}
