package progress

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MarvglobalStartup/ProSpeech/internal/model"
)

// Store is the slice of the persistence service the recorder needs.
type Store interface {
	RecordActivity(ctx context.Context, username string, activity model.ActivityLog) error
	GetUserData(ctx context.Context, username string) (model.UserData, error)
}

// Record persists one completed practice session and returns the entry plus
// the user's refreshed data. The caller must apply the returned UserData
// before rendering; a stale streak is a correctness bug, not cosmetic.
func Record(ctx context.Context, st Store, username, exerciseType, interest, transcript string, analysis model.AnalysisData) (model.ActivityLog, model.UserData, error) {
	entry := model.ActivityLog{
		ID:           uuid.NewString(),
		Date:         Today(),
		ExerciseType: exerciseType,
		Interest:     interest,
		Analysis:     analysis,
		Transcript:   transcript,
	}
	if err := st.RecordActivity(ctx, username, entry); err != nil {
		return model.ActivityLog{}, model.UserData{}, fmt.Errorf("failed to record activity: %w", err)
	}
	data, err := st.GetUserData(ctx, username)
	if err != nil {
		return model.ActivityLog{}, model.UserData{}, fmt.Errorf("failed to refresh user data: %w", err)
	}
	return entry, data, nil
}
