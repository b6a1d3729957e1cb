package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newsdesk-api/internal/mocks"
	"github.com/newsdesk-api/internal/models"
	"github.com/newsdesk-api/internal/service"
)

func (env *testEnv) video(t *testing.T, in *models.VideoInput) *models.Video {
	t.Helper()
	v, err := env.svc.Video.Create(context.Background(), env.uploader.ID, in)
	if err != nil {
		t.Fatalf("Video create failed: %v", err)
	}
	return v
}

func TestVideoService_LiveLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.video(t, &models.VideoInput{Title: ptr("Evening bulletin")})

	if v.Status != models.VideoDraft || v.IsLive {
		t.Fatalf("Expected draft, not live; got %s live=%v", v.Status, v.IsLive)
	}

	live, err := env.svc.Video.SetLive(ctx, v.ID, true)
	if err != nil {
		t.Fatalf("Go live failed: %v", err)
	}
	if !live.IsLive || live.Status != models.VideoLive || live.LiveStartTime == nil {
		t.Errorf("Expected live with start time, got %+v", live)
	}

	ended, err := env.svc.Video.SetLive(ctx, v.ID, false)
	if err != nil {
		t.Fatalf("End live failed: %v", err)
	}
	if ended.IsLive || ended.Status != models.VideoArchived || ended.LiveEndTime == nil {
		t.Errorf("Expected archived with end time, got %+v", ended)
	}
}

func TestVideoService_InvalidTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	draft := env.video(t, &models.VideoInput{Title: ptr("Draft")})
	if _, err := env.svc.Video.SetLive(ctx, draft.ID, false); err == nil {
		t.Error("Expected end-live on a non-live video to fail")
	} else {
		validationError(t, err)
	}

	archived := env.video(t, &models.VideoInput{Title: ptr("Old"), Status: ptr(models.VideoArchived)})
	_, err := env.svc.Video.SetLive(ctx, archived.ID, true)
	ve := validationError(t, err)
	if ve.Detail != `Cannot go live from status "archived".` {
		t.Errorf("Unexpected detail: %s", ve.Detail)
	}

	if _, err := env.svc.Video.SetLive(ctx, 999, true); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestVideoService_GoLiveClearsStalePlannedEnd(t *testing.T) {
	env := newTestEnv(t)
	past := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	v := env.video(t, &models.VideoInput{Title: ptr("Replay"), LiveEndTime: &past})

	live, err := env.svc.Video.SetLive(context.Background(), v.ID, true)
	if err != nil {
		t.Fatalf("Go live failed: %v", err)
	}
	if live.LiveEndTime != nil {
		t.Errorf("Expected stale end time to be cleared, got %v", live.LiveEndTime)
	}

	got, _ := env.svc.Video.Get(context.Background(), v.ID)
	if !got.IsLive {
		t.Error("Expected video to stay live after read")
	}
}

func TestVideoService_ExpiredLiveVideoIsArchivedOnRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)

	// stored live with a planned end that has already passed
	repos := env.store.Repositories()
	v := &models.Video{
		Title:         "Morning show",
		VideoType:     "news",
		Platform:      models.PlatformCustom,
		Status:        models.VideoLive,
		IsLive:        true,
		LiveStartTime: &start,
		LiveEndTime:   &end,
		UploaderID:    env.uploader.ID,
	}
	if err := repos.Video.Create(ctx, v); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	got, err := env.svc.Video.Get(ctx, v.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.IsLive || got.Status != models.VideoArchived {
		t.Errorf("Expected archived, got status=%s live=%v", got.Status, got.IsLive)
	}

	stored, _ := repos.Video.GetByID(ctx, v.ID)
	if stored.IsLive || stored.Status != models.VideoArchived {
		t.Error("Expected expiry to be persisted")
	}
}

func TestVideoService_ListArchivesExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)

	live := env.video(t, &models.VideoInput{Title: ptr("Ongoing")})
	if _, err := env.svc.Video.SetLive(ctx, live.ID, true); err != nil {
		t.Fatalf("Go live failed: %v", err)
	}
	expired := env.video(t, &models.VideoInput{Title: ptr("Finished")})
	expired.Status, expired.IsLive = models.VideoLive, true
	expired.LiveStartTime, expired.LiveEndTime = &start, &end
	env.store.Repositories().Video.(*mocks.MockVideoRepository).SetVideo(expired)

	list, err := env.svc.Video.List(ctx, models.VideoFilter{IsLive: ptr(true)})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if list.Total != 1 || list.Data[0].ID != live.ID {
		t.Errorf("Expected only the ongoing stream, got %+v", list.Data)
	}
}

func TestVideoService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		in    *models.VideoInput
		field string
	}{
		{"missing title", &models.VideoInput{}, "title"},
		{"youtube without url", &models.VideoInput{Title: ptr("T"), Platform: ptr(models.PlatformYouTube)}, "platform_url"},
		{"bad type", &models.VideoInput{Title: ptr("T"), VideoType: ptr("music")}, "video_type"},
		{"live without start", &models.VideoInput{Title: ptr("T"), IsLive: ptr(true)}, "live_start_time"},
		{"status live without flag", &models.VideoInput{Title: ptr("T"), Status: ptr(models.VideoLive)}, "status"},
		{"unknown category", &models.VideoInput{Title: ptr("T"), CategoryID: models.OptionalID{Set: true, ID: ptr(int64(999))}}, "category"},
		{"end before start", &models.VideoInput{Title: ptr("T"), IsLive: ptr(true), LiveStartTime: &start, LiveEndTime: ptr(start.Add(-time.Hour))}, "live_end_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Video.Create(ctx, env.uploader.ID, tt.in)
			ve := validationError(t, err)
			if _, ok := ve.Fields[tt.field]; !ok {
				t.Errorf("Expected error on %s, got %v", tt.field, ve.Fields)
			}
		})
	}

	v := env.video(t, &models.VideoInput{Title: ptr("On air"), IsLive: ptr(true), LiveStartTime: &start})
	if v.Status != models.VideoLive {
		t.Errorf("Expected is_live to force status live, got %s", v.Status)
	}
}

func TestVideoService_UpdateCannotChangeLiveState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	draft := env.video(t, &models.VideoInput{Title: ptr("Draft")})
	live := env.video(t, &models.VideoInput{Title: ptr("Live")})
	if _, err := env.svc.Video.SetLive(ctx, live.ID, true); err != nil {
		t.Fatalf("Go live failed: %v", err)
	}
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		id   int64
		in   *models.VideoInput
	}{
		{"set is_live", draft.ID, &models.VideoInput{IsLive: ptr(true)}},
		{"set status live", draft.ID, &models.VideoInput{Status: ptr(models.VideoLive)}},
		{"clear is_live", live.ID, &models.VideoInput{IsLive: ptr(false)}},
		{"archive live video", live.ID, &models.VideoInput{Status: ptr(models.VideoArchived)}},
		{"past planned end on live video", live.ID, &models.VideoInput{LiveEndTime: &past}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Video.Update(ctx, tt.id, tt.in, true)
			validationError(t, err)
		})
	}

	still, err := env.svc.Video.Get(ctx, live.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !still.IsLive || still.Status != models.VideoLive {
		t.Errorf("Expected video to stay live after rejected updates, got %s live=%v", still.Status, still.IsLive)
	}

	planned := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	updated, err := env.svc.Video.Update(ctx, live.ID, &models.VideoInput{Title: ptr("Live now"), LiveEndTime: &planned}, true)
	if err != nil {
		t.Fatalf("Expected title and planned end edit to succeed, got %v", err)
	}
	if !updated.IsLive || updated.LiveEndTime == nil || !updated.LiveEndTime.Equal(planned) {
		t.Errorf("Unexpected video after update: %+v", updated)
	}

	if _, err := env.svc.Video.Update(ctx, draft.ID, &models.VideoInput{Description: ptr("x")}, false); err == nil {
		t.Error("Expected PUT without title to fail")
	}
}

func TestVideoService_DeleteAndCategories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat, err := env.svc.VideoCategory.Create(ctx, &models.VideoCategoryInput{Name: "Interviews"})
	if err != nil {
		t.Fatalf("Video category create failed: %v", err)
	}
	if !cat.IsActive {
		t.Error("Expected video category to default to active")
	}
	if _, err := env.svc.VideoCategory.Create(ctx, &models.VideoCategoryInput{}); err == nil {
		t.Error("Expected nameless video category to fail")
	}

	v := env.video(t, &models.VideoInput{Title: ptr("Chat"), CategoryID: models.OptionalID{Set: true, ID: &cat.ID}})
	list, _ := env.svc.Video.List(ctx, models.VideoFilter{CategoryID: cat.ID})
	if list.Total != 1 {
		t.Errorf("Expected 1 video in category, got %d", list.Total)
	}

	if err := env.svc.Video.Delete(ctx, v.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := env.svc.Video.Get(ctx, v.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
