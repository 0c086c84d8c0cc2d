package utils

import (
	"context"
	"fmt"

	"tutorly/config"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// NewFCMClient initializes the Firebase App and Messaging client from FIREBASE_CREDENTIALS_FILE.
func NewFCMClient(ctx context.Context) (*messaging.Client, error) {
	path := config.AppConfig.FirebaseCredentialsFile
	if path == "" {
		return nil, fmt.Errorf("firebase: FIREBASE_CREDENTIALS_FILE is not set")
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(path))
	if err != nil {
		return nil, fmt.Errorf("firebase: error initializing app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: error getting Messaging client: %w", err)
	}
	return client, nil
}
