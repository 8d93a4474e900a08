package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/5-07/sweeten/internal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStorage lays documents out per user:
//
//	users/{uid}/vitals/{date}
//	users/{uid}/meta/plan
//	users/{uid}/reminders/{id}
//	users/{uid}/apiUsage/{id}
type FirestoreStorage struct {
	client *firestore.Client
	logger internal.Logger
}

func NewFirestoreStorage(ctx context.Context, projectID string, logger internal.Logger) (*FirestoreStorage, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		logger.Errorf("failed to create firestore client: %v", err)
		return nil, err
	}
	return &FirestoreStorage{client: client, logger: logger}, nil
}

func (f *FirestoreStorage) Close() error {
	return f.client.Close()
}

func (f *FirestoreStorage) user(userID string) *firestore.DocumentRef {
	return f.client.Collection("users").Doc(userID)
}

func (f *FirestoreStorage) planRef(userID string) *firestore.DocumentRef {
	return f.user(userID).Collection("meta").Doc("plan")
}

// --- VitalsRepository ---
func (f *FirestoreStorage) SaveVitals(ctx context.Context, userID string, e internal.VitalEntry) error {
	if _, err := f.user(userID).Collection("vitals").Doc(e.Date).Set(ctx, e); err != nil {
		f.logger.Errorf("failed to save vitals: %v", err)
		return err
	}
	return nil
}

func (f *FirestoreStorage) GetVitals(ctx context.Context, userID, date string) (*internal.VitalEntry, error) {
	snap, err := f.user(userID).Collection("vitals").Doc(date).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("storage: vitals %s: %w", date, internal.ErrNotFound)
	}
	if err != nil {
		f.logger.Errorf("failed to get vitals: %v", err)
		return nil, err
	}
	v, err := vitalFromData(snap.Ref.ID, snap.Data())
	if err != nil {
		f.logger.Warnf("vitals %s has unreadable fields: %v", snap.Ref.ID, err)
	}
	return &v, nil
}

func (f *FirestoreStorage) ListRecentVitals(ctx context.Context, userID string, limit int) ([]internal.VitalEntry, error) {
	q := f.user(userID).Collection("vitals").OrderBy("date", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		f.logger.Errorf("failed to query vitals: %v", err)
		return nil, err
	}
	out := make([]internal.VitalEntry, 0, len(snaps))
	for _, s := range snaps {
		v, err := vitalFromData(s.Ref.ID, s.Data())
		if err != nil {
			f.logger.Warnf("vitals %s has unreadable fields: %v", s.Ref.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// --- PlanRepository ---
func (f *FirestoreStorage) SavePlan(ctx context.Context, userID string, doc internal.PlanDocument) error {
	var payload any
	if err := json.Unmarshal(doc.Plan, &payload); err != nil {
		return fmt.Errorf("storage: plan payload: %w", err)
	}
	_, err := f.planRef(userID).Set(ctx, map[string]any{
		"plan":        payload,
		"source":      doc.Source,
		"generatedAt": doc.GeneratedAt,
	})
	if err != nil {
		f.logger.Errorf("failed to save plan: %v", err)
		return err
	}
	return nil
}

// GetPlan also reads documents written by older clients, which may lack
// the plan field or store generatedAt as an ISO string.
func (f *FirestoreStorage) GetPlan(ctx context.Context, userID string) (*internal.PlanDocument, error) {
	snap, err := f.planRef(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("storage: plan: %w", internal.ErrNotFound)
	}
	if err != nil {
		f.logger.Errorf("failed to get plan: %v", err)
		return nil, err
	}
	data := snap.Data()
	doc := internal.PlanDocument{}
	doc.Source, _ = data["source"].(string)
	switch t := data["generatedAt"].(type) {
	case time.Time:
		doc.GeneratedAt = t
	case string:
		doc.GeneratedAt, _ = time.Parse(time.RFC3339, t)
	}

	var payload any = data
	if p, ok := data["plan"]; ok {
		payload = p
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("storage: encode plan: %w", err)
	}
	doc.Plan = raw
	return &doc, nil
}

// --- ReminderRepository ---
func (f *FirestoreStorage) AddReminder(ctx context.Context, userID string, r internal.Reminder) error {
	if _, err := f.user(userID).Collection("reminders").Doc(r.ID).Set(ctx, r); err != nil {
		f.logger.Errorf("failed to add reminder: %v", err)
		return err
	}
	return nil
}

func (f *FirestoreStorage) ListReminders(ctx context.Context, userID string) ([]internal.Reminder, error) {
	snaps, err := f.user(userID).Collection("reminders").Documents(ctx).GetAll()
	if err != nil {
		f.logger.Errorf("failed to list reminders: %v", err)
		return nil, err
	}
	out := make([]internal.Reminder, 0, len(snaps))
	for _, s := range snaps {
		var r internal.Reminder
		if err := s.DataTo(&r); err != nil {
			f.logger.Warnf("skipping malformed reminder %s: %v", s.Ref.ID, err)
			continue
		}
		r.ID = s.Ref.ID
		out = append(out, r)
	}
	return out, nil
}

func (f *FirestoreStorage) DeleteReminder(ctx context.Context, userID, id string) error {
	if _, err := f.user(userID).Collection("reminders").Doc(id).Delete(ctx); err != nil {
		f.logger.Errorf("failed to delete reminder: %v", err)
		return err
	}
	return nil
}

// --- UsageRepository ---
func (f *FirestoreStorage) AddUsage(ctx context.Context, userID string, rec internal.UsageRecord) error {
	if _, err := f.user(userID).Collection("apiUsage").Doc(rec.ID).Set(ctx, rec); err != nil {
		f.logger.Errorf("failed to add usage: %v", err)
		return err
	}
	return nil
}

func (f *FirestoreStorage) ListUsageSince(ctx context.Context, userID string, since time.Time) ([]internal.UsageRecord, error) {
	snaps, err := f.user(userID).Collection("apiUsage").Where("createdAt", ">=", since).Documents(ctx).GetAll()
	if err != nil {
		f.logger.Errorf("failed to query usage: %v", err)
		return nil, err
	}
	out := make([]internal.UsageRecord, 0, len(snaps))
	for _, s := range snaps {
		if u, ok := decodeUsage(f.logger, s.Ref.ID, s.DataTo); ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// --- Compile-time assertions ---
var _ Store = (*FirestoreStorage)(nil)
