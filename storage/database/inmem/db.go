// Package inmemdb provides in-memory repository implementations used in tests
// and local development.
package inmemdb

import (
	"sync"

	"github.com/lazoapp/lazo/core/document"
	"github.com/lazoapp/lazo/core/meeting"
	"github.com/lazoapp/lazo/core/message"
	"github.com/lazoapp/lazo/core/relationship"
	"github.com/lazoapp/lazo/core/task"
	"github.com/lazoapp/lazo/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users         map[string]*user.User
	relationships map[string]*relationship.Relationship
	hourEntries   map[string]*relationship.HourEntry
	meetings      map[string]*meeting.Meeting
	tasks         map[string]*task.Task
	documents     map[string]*document.Document
	messages      map[string]*message.Message
}

func NewDB() *DB {
	db := new(DB)
	db.reset()
	return db
}

func (db *DB) reset() {
	db.users = make(map[string]*user.User)
	db.relationships = make(map[string]*relationship.Relationship)
	db.hourEntries = make(map[string]*relationship.HourEntry)
	db.meetings = make(map[string]*meeting.Meeting)
	db.tasks = make(map[string]*task.Task)
	db.documents = make(map[string]*document.Document)
	db.messages = make(map[string]*message.Message)
}

// Reset drops all stored data; for tests.
func (db *DB) Reset() {
	db.mutex.Lock()
	db.reset()
	db.mutex.Unlock()
}
