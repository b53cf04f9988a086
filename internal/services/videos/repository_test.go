package videos

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/killallgit/depthtrack-api/internal/database"
	"github.com/killallgit/depthtrack-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(database.Options{Path: filepath.Join(t.TempDir(), "videos.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func createVideo(t *testing.T, repo Repository, name string) *models.VideoAsset {
	t.Helper()
	video := &models.VideoAsset{
		StoredFilename: "video-" + name,
		OriginalName:   name,
		MimeType:       "video/mp4",
		SizeBytes:      1024,
		DepthState:     models.DepthStateIdle,
	}
	require.NoError(t, repo.Create(context.Background(), video))
	return video
}

func TestRepository_GetMissing(t *testing.T) {
	repo := NewRepository(setupTestDB(t).DB)
	_, err := repo.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrVideoNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), 99), ErrVideoNotFound)
}

func TestRepository_BeginDepthGeneration(t *testing.T) {
	repo := NewRepository(setupTestDB(t).DB)
	ctx := context.Background()
	video := createVideo(t, repo, "clip.mp4")

	require.NoError(t, repo.BeginDepthGeneration(ctx, video.ID))
	assert.ErrorIs(t, repo.BeginDepthGeneration(ctx, video.ID), ErrGenerationInProgress)
	assert.ErrorIs(t, repo.BeginDepthGeneration(ctx, 12345), ErrVideoNotFound)

	got, err := repo.Get(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DepthStateGenerating, got.DepthState)
	assert.NotNil(t, got.DepthStartedAt)
}

func TestRepository_BeginDepthGenerationIsSingleFlight(t *testing.T) {
	repo := NewRepository(setupTestDB(t).DB)
	video := createVideo(t, repo, "race.mp4")

	const callers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		conflict int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.BeginDepthGeneration(context.Background(), video.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
			} else if assert.ErrorIs(t, err, ErrGenerationInProgress) {
				conflict++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, callers-1, conflict)
}

func TestRepository_CompleteAndFail(t *testing.T) {
	repo := NewRepository(setupTestDB(t).DB)
	ctx := context.Background()
	video := createVideo(t, repo, "clip.mp4")

	_, err := repo.CompleteDepthGeneration(ctx, video.ID, "depth-1.mp4")
	assert.ErrorIs(t, err, ErrNotGenerating)

	require.NoError(t, repo.BeginDepthGeneration(ctx, video.ID))
	prev, err := repo.CompleteDepthGeneration(ctx, video.ID, "depth-1.mp4")
	require.NoError(t, err)
	assert.Empty(t, prev)

	require.NoError(t, repo.BeginDepthGeneration(ctx, video.ID))
	require.NoError(t, repo.FailDepthGeneration(ctx, video.ID, "inference: boom"))

	got, err := repo.Get(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DepthStateFailed, got.DepthState)
	assert.Equal(t, "inference: boom", got.DepthError)
	assert.Equal(t, "depth-1.mp4", got.DepthFilename)

	require.NoError(t, repo.BeginDepthGeneration(ctx, video.ID))
	got, err = repo.Get(ctx, video.ID)
	require.NoError(t, err)
	assert.Empty(t, got.DepthError)

	prev, err = repo.CompleteDepthGeneration(ctx, video.ID, "depth-2.mp4")
	require.NoError(t, err)
	assert.Equal(t, "depth-1.mp4", prev)

	_, err = repo.CompleteDepthGeneration(ctx, 999, "x")
	assert.ErrorIs(t, err, ErrVideoNotFound)
	assert.ErrorIs(t, repo.FailDepthGeneration(ctx, 999, "x"), ErrVideoNotFound)
}

func TestRepository_AnnotationUpdateDoesNotClobberDepthState(t *testing.T) {
	repo := NewRepository(setupTestDB(t).DB)
	ctx := context.Background()
	video := createVideo(t, repo, "clip.mp4")

	// the asset is loaded, then generation starts, then an annotation edit lands
	stale, err := repo.Get(ctx, video.ID)
	require.NoError(t, err)
	require.NoError(t, repo.BeginDepthGeneration(ctx, video.ID))

	objects := []models.TrackedObject{{ID: "ball", Name: "Ball", Color: "#f00"}}
	require.NoError(t, repo.UpdateAnnotation(ctx, stale.ID, AnnotationPatch{TrackedObjects: &objects}))

	got, err := repo.Get(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DepthStateGenerating, got.DepthState)
	assert.Equal(t, objects, got.TrackedObjects.Data())
}

func TestRepository_UpdateAnnotationIsFieldScoped(t *testing.T) {
	repo := NewRepository(setupTestDB(t).DB)
	ctx := context.Background()
	video := createVideo(t, repo, "clip.mp4")

	calibration := json.RawMessage(`[{"x":1,"y":2}]`)
	require.NoError(t, repo.UpdateAnnotation(ctx, video.ID, AnnotationPatch{CalibrationPoints: calibration}))

	compiled := json.RawMessage(`{"ball":[[0,1,2]]}`)
	require.NoError(t, repo.UpdateAnnotation(ctx, video.ID, AnnotationPatch{CompiledTracking: compiled}))

	got, err := repo.Get(ctx, video.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(calibration), string(got.CalibrationPoints))
	assert.JSONEq(t, string(compiled), string(got.CompiledTracking))
	assert.Equal(t, models.CurrentAnnotationVersion, got.AnnotationVersion)

	assert.ErrorIs(t, repo.UpdateAnnotation(ctx, 999, AnnotationPatch{CompiledTracking: compiled}), ErrVideoNotFound)
}

func TestRepository_List(t *testing.T) {
	repo := NewRepository(setupTestDB(t).DB)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		createVideo(t, repo, fmt.Sprintf("run_%d.mp4", i))
	}
	createVideo(t, repo, "run%100.mp4")

	items, total, err := repo.List(ctx, ListQuery{Limit: 2, OrderBy: "id", Desc: true})
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	require.Len(t, items, 2)
	assert.Equal(t, "run%100.mp4", items[0].OriginalName)

	items, total, err = repo.List(ctx, ListQuery{Limit: 10, OrderBy: "id", Search: "%"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "run%100.mp4", items[0].OriginalName)

	_, total, err = repo.List(ctx, ListQuery{Limit: 10, OrderBy: "id", Search: "_3"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestRepository_FailOrphanedGenerations(t *testing.T) {
	repo := NewRepository(setupTestDB(t).DB)
	ctx := context.Background()
	live := createVideo(t, repo, "live.mp4")
	orphan := createVideo(t, repo, "orphan.mp4")
	noJob := createVideo(t, repo, "nojob.mp4")
	idle := createVideo(t, repo, "idle.mp4")

	for _, v := range []*models.VideoAsset{live, orphan, noJob} {
		require.NoError(t, repo.BeginDepthGeneration(ctx, v.ID))
	}
	require.NoError(t, repo.AttachDepthJob(ctx, live.ID, 10))
	require.NoError(t, repo.AttachDepthJob(ctx, orphan.ID, 11))

	n, err := repo.FailOrphanedGenerations(ctx, "interrupted by server restart", []uint{10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	states := map[uint]models.DepthState{}
	for _, v := range []*models.VideoAsset{live, orphan, noJob, idle} {
		got, err := repo.Get(ctx, v.ID)
		require.NoError(t, err)
		states[v.ID] = got.DepthState
	}
	assert.Equal(t, models.DepthStateGenerating, states[live.ID])
	assert.Equal(t, models.DepthStateFailed, states[orphan.ID])
	assert.Equal(t, models.DepthStateFailed, states[noJob.ID])
	assert.Equal(t, models.DepthStateIdle, states[idle.ID])
}
