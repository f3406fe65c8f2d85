package hltb

import (
	"context"
	"errors"
	"testing"

	"github.com/gamelens/gamelens/models"
)

type stubSource struct {
	name  string
	data  *models.HLTBData
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(_ context.Context, _ Query) (*models.HLTBData, error) {
	s.calls++
	return s.data, s.err
}

func TestChain_FirstHitWins(t *testing.T) {
	first := &stubSource{name: "db", data: &models.HLTBData{MainStory: models.Hours(10)}}
	second := &stubSource{name: "scraper", data: &models.HLTBData{MainStory: models.Hours(99)}}

	got, err := NewChain(first, second).Fetch(context.Background(), Query{Title: "x"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if *got.MainStory != 10 {
		t.Errorf("MainStory = %v, want first source's 10", *got.MainStory)
	}
	if second.calls != 0 {
		t.Errorf("second source called %d times, want 0", second.calls)
	}
}

func TestChain_NotFoundFallsThrough(t *testing.T) {
	first := &stubSource{name: "db", err: ErrNotFound}
	second := &stubSource{name: "scraper", data: &models.HLTBData{AllStyles: models.Hours(5)}}

	got, err := NewChain(first, second).Fetch(context.Background(), Query{Title: "x"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.AllStyles == nil {
		t.Error("expected fallback source's record")
	}
}

func TestChain_HardErrorStillTriesRestThenReports(t *testing.T) {
	hard := errors.New("database on fire")
	first := &stubSource{name: "db", err: hard}
	second := &stubSource{name: "scraper", err: ErrNotFound}

	_, err := NewChain(first, second).Fetch(context.Background(), Query{Title: "x"})
	if !errors.Is(err, hard) {
		t.Errorf("Fetch() error = %v, want the hard failure, not ErrNotFound", err)
	}
	if second.calls != 1 {
		t.Errorf("second source called %d times, want 1 despite first failing", second.calls)
	}
}

func TestChain_AllMiss(t *testing.T) {
	chain := NewChain(&stubSource{err: ErrNotFound}, &stubSource{err: ErrNotFound})
	_, err := chain.Fetch(context.Background(), Query{Title: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch() error = %v, want ErrNotFound", err)
	}
}
