package agent

import (
	"time"

	"github.com/saulo-duarte/course-progress-agent/internal/assignment"
	"github.com/saulo-duarte/course-progress-agent/internal/auth"
	"github.com/saulo-duarte/course-progress-agent/internal/quiz"
	"github.com/saulo-duarte/course-progress-agent/internal/syncer"
)

type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseWaitingIdentity Phase = "waiting_identity"
	PhaseSyncing         Phase = "syncing"
	PhaseRunning         Phase = "running"
	PhaseStopped         Phase = "stopped"
)

// Snapshot is everything the rendering surface needs, pushed on every change.
type Snapshot struct {
	Phase       Phase               `json:"phase"`
	Identity    *auth.Identity      `json:"identity,omitempty"`
	Progress    syncer.ProgressView `json:"progress"`
	Quiz        quiz.Snapshot       `json:"quiz"`
	Assignments assignment.Snapshot `json:"assignments"`
	At          time.Time           `json:"at"`
}

type Observer interface {
	Publish(Snapshot)
}

type ObserverFunc func(Snapshot)

func (f ObserverFunc) Publish(s Snapshot) { f(s) }
