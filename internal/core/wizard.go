package core

import (
	"fmt"
	"sync"
)

// Step is a stage of the import wizard.
type Step string

const (
	StepUpload    Step = "upload"
	StepMapping   Step = "mapping"
	StepPreview   Step = "preview"
	StepImporting Step = "importing"
	StepComplete  Step = "complete"
)

// Wizard sequences the import steps for one file:
//
//	upload -> mapping (generic only) -> preview -> importing -> complete
//
// Back moves from mapping or preview to the prior step. Importing may only
// finish, or fall back to preview when submission never started.
type Wizard struct {
	mu   sync.Mutex
	kind FileKind
	step Step
}

// NewWizard starts a wizard at the upload step.
func NewWizard(kind FileKind) *Wizard {
	return &Wizard{kind: kind, step: StepUpload}
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) allowed(from, to Step) bool {
	switch from {
	case StepUpload:
		if w.kind == KindGeneric {
			return to == StepMapping
		}
		return to == StepPreview
	case StepMapping:
		return to == StepPreview || to == StepUpload
	case StepPreview:
		return to == StepImporting || to == w.previous(StepPreview)
	case StepImporting:
		return to == StepComplete
	}
	return false
}

func (w *Wizard) previous(s Step) Step {
	switch s {
	case StepMapping:
		return StepUpload
	case StepPreview:
		if w.kind == KindGeneric {
			return StepMapping
		}
		return StepUpload
	}
	return ""
}

// Advance moves to step to, or returns ErrInvalidTransition.
func (w *Wizard) Advance(to Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.allowed(w.step, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, w.step, to)
	}
	w.step = to
	return nil
}

// Back returns to the prior step from mapping or preview.
func (w *Wizard) Back() (Step, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	prev := w.previous(w.step)
	if prev == "" {
		return w.step, fmt.Errorf("%w: cannot go back from %s", ErrInvalidTransition, w.step)
	}
	w.step = prev
	return prev, nil
}

// Abort returns from importing to preview. It must only be used when the
// executor never started submitting.
func (w *Wizard) Abort() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepImporting {
		return fmt.Errorf("%w: abort from %s", ErrInvalidTransition, w.step)
	}
	w.step = StepPreview
	return nil
}
