package irc

import (
	"time"
)

// JoinedChannel is the session's view of one channel. It is only touched
// from the owner goroutine and is never removed once created; Active reports
// whether we are still on it.
type JoinedChannel struct {
	name         Entity
	members      []Nick
	topic        Text
	topicAuthor  Nick
	topicTime    time.Time
	active       bool
	namesPending bool
}

func newJoinedChannel(name Entity) *JoinedChannel {
	return &JoinedChannel{name: name}
}

// Name returns the channel name as first seen
func (c *JoinedChannel) Name() Entity {
	return c.name
}

// Members returns a copy of the member list. Order is not stable.
func (c *JoinedChannel) Members() []Nick {
	members := make([]Nick, len(c.members))
	copy(members, c.members)
	return members
}

// Member looks a nick up in the roster
func (c *JoinedChannel) Member(nick Entity) (Nick, bool) {
	if i := c.indexOf(nick); i >= 0 {
		return c.members[i], true
	}
	return Nick{}, false
}

// HasMember reports whether nick is on the channel
func (c *JoinedChannel) HasMember(nick Entity) bool {
	return c.indexOf(nick) >= 0
}

// Topic returns the current topic text
func (c *JoinedChannel) Topic() Text {
	return c.topic
}

// TopicAuthor returns who set the topic
func (c *JoinedChannel) TopicAuthor() Nick {
	return c.topicAuthor
}

// TopicTime returns when the topic was set
func (c *JoinedChannel) TopicTime() time.Time {
	return c.topicTime
}

// Active reports whether we are currently joined
func (c *JoinedChannel) Active() bool {
	return c.active
}

func (c *JoinedChannel) indexOf(nick Entity) int {
	for i, member := range c.members {
		if member.Equal(nick) {
			return i
		}
	}
	return -1
}

func (c *JoinedChannel) clearMembers() {
	c.members = c.members[:0]
}

// addName adds a NAMES entry, replacing an existing one for the same nick
func (c *JoinedChannel) addName(nick Nick) {
	if i := c.indexOf(nick.Entity); i >= 0 {
		c.members[i] = nick
		return
	}
	c.members = append(c.members, nick)
}

// removeMember removes nick and reports whether it was present. The last
// member is swapped in, which is why member order is not stable.
func (c *JoinedChannel) removeMember(nick Entity) bool {
	i := c.indexOf(nick)
	if i < 0 {
		return false
	}
	last := len(c.members) - 1
	c.members[i] = c.members[last]
	c.members[last] = Nick{}
	c.members = c.members[:last]
	return true
}

func (c *JoinedChannel) renameMember(from Entity, to string) bool {
	i := c.indexOf(from)
	if i < 0 {
		return false
	}
	c.members[i] = c.members[i].Rename(to)
	return true
}

func (c *JoinedChannel) setPrivilege(nick Entity, p Privilege) bool {
	i := c.indexOf(nick)
	if i < 0 {
		return false
	}
	c.members[i] = c.members[i].WithPrivilege(p)
	return true
}
