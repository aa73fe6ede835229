package tracking

import "time"

// SystemActor is recorded as creator when no acting identity is available.
const SystemActor = "SYSTEM"

// Stamps is the ownership/version block carried by every tracked entity.
// LastModifiedTime doubles as the optimistic-concurrency token.
type Stamps struct {
	CreatedBy        string     `gorm:"size:128;not null" json:"created_by"`
	CreatedTime      time.Time  `gorm:"not null" json:"created_time"`
	LastModifiedBy   *string    `gorm:"size:128" json:"last_modified_by,omitempty"`
	LastModifiedTime *time.Time `json:"last_modified_time,omitempty"`
	Active           bool       `gorm:"not null" json:"active"`
}

// GetStamps lets any struct embedding Stamps satisfy Tracked.
func (s *Stamps) GetStamps() *Stamps {
	return s
}

// Token returns a copy of the concurrency token, nil if the entity was never modified.
func (s *Stamps) Token() *time.Time {
	if s.LastModifiedTime == nil {
		return nil
	}
	t := *s.LastModifiedTime
	return &t
}

// Tracked is implemented by entities that carry Stamps.
type Tracked interface {
	GetStamps() *Stamps
}

// Stamp sets ownership and version fields according to the entity's prior
// state. An empty actor means no identity is available. Deleted and
// unchanged entities are left alone; whether a delete is hard or soft is up
// to the caller.
func Stamp(entity Tracked, prior State, actor string, now time.Time) {
	s := entity.GetStamps()
	switch prior {
	case Added:
		if actor == "" {
			actor = SystemActor
		}
		s.CreatedBy = actor
		s.CreatedTime = now
		s.Active = true
	case Modified:
		if actor == "" {
			s.LastModifiedBy = nil
		} else {
			by := actor
			s.LastModifiedBy = &by
		}
		at := now
		s.LastModifiedTime = &at
	}
}
