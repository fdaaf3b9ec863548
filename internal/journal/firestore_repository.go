package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/focusnest/seeding-service/internal/badge"
)

const (
	usersCollection        = "users"
	activitiesCollection   = "activities"
	relapsesCollection     = "relapses"
	urgesCollection        = "urges"
	earnedBadgesCollection = "earned_badges"
	journeyField           = "journey"
)

var userSubcollections = []string{
	activitiesCollection,
	relapsesCollection,
	urgesCollection,
	earnedBadgesCollection,
}

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository instantiates a Firestore-backed repository. Records
// live in subcollections of users/{userID}; the journey is a field on the
// user document.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) userDoc(userID string) *firestore.DocumentRef {
	return r.client.Collection(usersCollection).Doc(userID)
}

func (r *firestoreRepository) sub(userID, name string) *firestore.CollectionRef {
	return r.userDoc(userID).Collection(name)
}

// ===== Activities =====

func (r *firestoreRepository) CreateActivity(ctx context.Context, a Activity) error {
	return r.create(ctx, r.sub(a.UserID, activitiesCollection).Doc(a.ID), map[string]any{
		"timestamp":  a.Timestamp,
		"note":       a.Note,
		"categories": a.Categories,
		"created_at": a.CreatedAt,
		"deleted":    false,
	})
}

func (r *firestoreRepository) DeleteActivity(ctx context.Context, userID, id string, deletedAt time.Time) error {
	return r.softDelete(ctx, r.sub(userID, activitiesCollection).Doc(id), deletedAt)
}

func (r *firestoreRepository) ListActivities(ctx context.Context, userID string) ([]Activity, error) {
	out := make([]Activity, 0)
	err := r.each(ctx, r.sub(userID, activitiesCollection), func(doc *firestore.DocumentSnapshot) error {
		var payload struct {
			Timestamp  time.Time `firestore:"timestamp"`
			Note       string    `firestore:"note"`
			Categories []string  `firestore:"categories"`
			CreatedAt  time.Time `firestore:"created_at"`
		}
		if err := doc.DataTo(&payload); err != nil {
			return fmt.Errorf("decode activity %s: %w", doc.Ref.ID, err)
		}
		out = append(out, Activity{
			ID:         doc.Ref.ID,
			UserID:     userID,
			Timestamp:  payload.Timestamp,
			Note:       payload.Note,
			Categories: nonNil(payload.Categories),
			CreatedAt:  payload.CreatedAt,
		})
		return nil
	})
	return out, err
}

// ===== Relapses =====

func (r *firestoreRepository) CreateRelapse(ctx context.Context, rel Relapse) error {
	return r.create(ctx, r.sub(rel.UserID, relapsesCollection).Doc(rel.ID), map[string]any{
		"timestamp":  rel.Timestamp,
		"note":       rel.Note,
		"tags":       rel.Tags,
		"created_at": rel.CreatedAt,
		"deleted":    false,
	})
}

func (r *firestoreRepository) DeleteRelapse(ctx context.Context, userID, id string, deletedAt time.Time) error {
	return r.softDelete(ctx, r.sub(userID, relapsesCollection).Doc(id), deletedAt)
}

func (r *firestoreRepository) ListRelapses(ctx context.Context, userID string) ([]Relapse, error) {
	out := make([]Relapse, 0)
	err := r.each(ctx, r.sub(userID, relapsesCollection), func(doc *firestore.DocumentSnapshot) error {
		var payload struct {
			Timestamp time.Time `firestore:"timestamp"`
			Note      string    `firestore:"note"`
			Tags      []string  `firestore:"tags"`
			CreatedAt time.Time `firestore:"created_at"`
		}
		if err := doc.DataTo(&payload); err != nil {
			return fmt.Errorf("decode relapse %s: %w", doc.Ref.ID, err)
		}
		out = append(out, Relapse{
			ID:        doc.Ref.ID,
			UserID:    userID,
			Timestamp: payload.Timestamp,
			Note:      payload.Note,
			Tags:      nonNil(payload.Tags),
			CreatedAt: payload.CreatedAt,
		})
		return nil
	})
	return out, err
}

// ===== Urges =====

func (r *firestoreRepository) CreateUrge(ctx context.Context, u Urge) error {
	return r.create(ctx, r.sub(u.UserID, urgesCollection).Doc(u.ID), map[string]any{
		"timestamp":  u.Timestamp,
		"intensity":  u.Intensity,
		"note":       u.Note,
		"created_at": u.CreatedAt,
		"deleted":    false,
	})
}

func (r *firestoreRepository) DeleteUrge(ctx context.Context, userID, id string, deletedAt time.Time) error {
	return r.softDelete(ctx, r.sub(userID, urgesCollection).Doc(id), deletedAt)
}

func (r *firestoreRepository) ListUrges(ctx context.Context, userID string) ([]Urge, error) {
	out := make([]Urge, 0)
	err := r.each(ctx, r.sub(userID, urgesCollection), func(doc *firestore.DocumentSnapshot) error {
		var payload struct {
			Timestamp time.Time `firestore:"timestamp"`
			Intensity int       `firestore:"intensity"`
			Note      string    `firestore:"note"`
			CreatedAt time.Time `firestore:"created_at"`
		}
		if err := doc.DataTo(&payload); err != nil {
			return fmt.Errorf("decode urge %s: %w", doc.Ref.ID, err)
		}
		out = append(out, Urge{
			ID:        doc.Ref.ID,
			UserID:    userID,
			Timestamp: payload.Timestamp,
			Intensity: payload.Intensity,
			Note:      payload.Note,
			CreatedAt: payload.CreatedAt,
		})
		return nil
	})
	return out, err
}

// ===== Journey =====

type journeyDoc struct {
	StartedAt time.Time `firestore:"started_at"`
	Timezone  string    `firestore:"timezone"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func (r *firestoreRepository) GetJourney(ctx context.Context, userID string) (Journey, error) {
	doc, err := r.userDoc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Journey{}, ErrNotFound
	}
	if err != nil {
		return Journey{}, err
	}

	var payload struct {
		Journey *journeyDoc `firestore:"journey"`
	}
	if err := doc.DataTo(&payload); err != nil {
		return Journey{}, fmt.Errorf("decode journey: %w", err)
	}
	if payload.Journey == nil {
		return Journey{}, ErrNotFound
	}
	return Journey{
		UserID:    userID,
		StartedAt: payload.Journey.StartedAt,
		Timezone:  payload.Journey.Timezone,
		CreatedAt: payload.Journey.CreatedAt,
		UpdatedAt: payload.Journey.UpdatedAt,
	}, nil
}

func (r *firestoreRepository) UpsertJourney(ctx context.Context, j Journey) (Journey, error) {
	ref := r.userDoc(j.UserID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			if created, err := doc.DataAt(journeyField + ".created_at"); err == nil {
				if t, ok := created.(time.Time); ok {
					j.CreatedAt = t
				}
			}
		}

		return tx.Set(ref, map[string]any{
			"user_id": j.UserID,
			journeyField: map[string]any{
				"started_at": j.StartedAt,
				"timezone":   j.Timezone,
				"created_at": j.CreatedAt,
				"updated_at": j.UpdatedAt,
			},
		}, firestore.MergeAll)
	})
	if err != nil {
		return Journey{}, err
	}
	return j, nil
}

// ===== Earned badges =====

func (r *firestoreRepository) ListEarnedBadges(ctx context.Context, userID string) ([]badge.EarnedBadge, error) {
	iter := r.sub(userID, earnedBadgesCollection).OrderBy("unlocked_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	out := make([]badge.EarnedBadge, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var payload struct {
			UnlockedAt time.Time `firestore:"unlocked_at"`
		}
		if err := doc.DataTo(&payload); err != nil {
			return nil, fmt.Errorf("decode earned badge %s: %w", doc.Ref.ID, err)
		}
		out = append(out, badge.EarnedBadge{BadgeID: doc.Ref.ID, UnlockedAt: payload.UnlockedAt})
	}
	return out, nil
}

// AwardBadge keys the document by badge id so Create fails for a repeat award.
func (r *firestoreRepository) AwardBadge(ctx context.Context, userID string, earned badge.EarnedBadge) (bool, error) {
	_, err := r.sub(userID, earnedBadgesCollection).Doc(earned.BadgeID).Create(ctx, map[string]any{
		"badge_id":    earned.BadgeID,
		"unlocked_at": earned.UnlockedAt,
	})
	if status.Code(err) == codes.AlreadyExists {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// ===== Reset =====

func (r *firestoreRepository) DeleteUser(ctx context.Context, userID string) error {
	bw := r.client.BulkWriter(ctx)

	var errs []error
	for _, name := range userSubcollections {
		refs := r.sub(userID, name).DocumentRefs(ctx)
		for {
			ref, err := refs.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("list %s: %w", name, err))
				break
			}
			if _, err := bw.Delete(ref); err != nil {
				errs = append(errs, fmt.Errorf("delete %s/%s: %w", name, ref.ID, err))
			}
		}
	}
	if _, err := bw.Delete(r.userDoc(userID)); err != nil {
		errs = append(errs, fmt.Errorf("delete user document: %w", err))
	}
	bw.End()

	return errors.Join(errs...)
}

// ===== helpers =====

func (r *firestoreRepository) create(ctx context.Context, ref *firestore.DocumentRef, data map[string]any) error {
	_, err := ref.Create(ctx, data)
	if status.Code(err) == codes.AlreadyExists {
		return ErrConflict
	}
	return err
}

func (r *firestoreRepository) softDelete(ctx context.Context, ref *firestore.DocumentRef, deletedAt time.Time) error {
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if deleted, ok := doc.Data()["deleted"].(bool); ok && deleted {
			return ErrNotFound
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "deleted", Value: true},
			{Path: "deleted_at", Value: deletedAt},
		})
	})
}

// each iterates the live documents of a collection, newest first.
func (r *firestoreRepository) each(ctx context.Context, col *firestore.CollectionRef, fn func(*firestore.DocumentSnapshot) error) error {
	iter := col.Where("deleted", "==", false).OrderBy("timestamp", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
