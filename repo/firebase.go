package repo

import (
	"context"
	"fmt"
	"os"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

// FirebaseConnector records wizard responses, plans and document
// references in the Firebase Realtime Database, keyed by session.
type FirebaseConnector struct {
	app    *firebase.App
	client *db.Client
}

// NewFirebaseConnector creates a new Firebase connector
func NewFirebaseConnector(ctx context.Context, serviceAccountKeyPath string, databaseURL string) (*FirebaseConnector, error) {
	opt := option.WithCredentialsFile(serviceAccountKeyPath)

	config := &firebase.Config{
		DatabaseURL: databaseURL,
	}
	app, err := firebase.NewApp(ctx, config, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting database client: %w", err)
	}

	return &FirebaseConnector{
		app:    app,
		client: client,
	}, nil
}

// InitializeFirebase builds a connector from the environment.
func InitializeFirebase(ctx context.Context) (*FirebaseConnector, error) {
	serviceAccountKeyPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_KEY_PATH")
	if serviceAccountKeyPath == "" {
		return nil, fmt.Errorf("FIREBASE_SERVICE_ACCOUNT_KEY_PATH environment variable not set")
	}

	databaseURL := os.Getenv("FIREBASE_DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("FIREBASE_DATABASE_URL environment variable not set")
	}

	firebaseConnector, err := NewFirebaseConnector(ctx, serviceAccountKeyPath, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("error creating Firebase connector: %w", err)
	}

	return firebaseConnector, nil
}

type responseRecord struct {
	SessionID  string    `json:"sessionID"`
	Step       int       `json:"step"`
	QuestionID string    `json:"questionID"`
	Answer     string    `json:"answer"`
	RecordedAt time.Time `json:"recordedAt"`
}

// RecordResponse stores one accepted answer under
// responses/<sessionID>/step<step>/<questionID>. Recording the same
// question twice overwrites, which keeps retried finalizations idempotent.
func (fc *FirebaseConnector) RecordResponse(ctx context.Context, sessionID string, step int, questionID, answer string) error {
	ref := fc.client.NewRef("responses").Child(sessionID).Child(fmt.Sprintf("step%d", step)).Child(questionID)
	record := responseRecord{
		SessionID:  sessionID,
		Step:       step,
		QuestionID: questionID,
		Answer:     answer,
		RecordedAt: time.Now().UTC(),
	}
	if err := ref.Set(ctx, record); err != nil {
		return fmt.Errorf("error recording response: %w", err)
	}
	return nil
}

// ReadResponses returns a session's recorded answers for one step, keyed
// by question id.
func (fc *FirebaseConnector) ReadResponses(ctx context.Context, sessionID string, step int) (map[string]string, error) {
	ref := fc.client.NewRef("responses").Child(sessionID).Child(fmt.Sprintf("step%d", step))
	var records map[string]responseRecord
	if err := ref.Get(ctx, &records); err != nil {
		return nil, fmt.Errorf("error reading responses: %w", err)
	}

	answers := make(map[string]string, len(records))
	for questionID, record := range records {
		answers[questionID] = record.Answer
	}
	return answers, nil
}

// SavePlan stores the generated plan for a session.
func (fc *FirebaseConnector) SavePlan(ctx context.Context, sessionID, plan string) error {
	ref := fc.client.NewRef("plans").Child(sessionID)
	if err := ref.Set(ctx, map[string]interface{}{
		"plan":        plan,
		"generatedAt": time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("error saving plan: %w", err)
	}
	return nil
}

// SaveDocumentRef stores a reference to an uploaded persona document.
func (fc *FirebaseConnector) SaveDocumentRef(ctx context.Context, sessionID, filename, url string) error {
	ref := fc.client.NewRef("documents").Child(sessionID)
	_, err := ref.Push(ctx, map[string]interface{}{
		"filename":   filename,
		"url":        url,
		"uploadedAt": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("error saving document reference: %w", err)
	}
	return nil
}
