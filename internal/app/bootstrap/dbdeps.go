// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	contentstore "github.com/dalemusser/stratacms/internal/app/store/content"
	leadstore "github.com/dalemusser/stratacms/internal/app/store/leads"
	"github.com/dalemusser/stratacms/internal/app/store/ratelimit"
	"github.com/dalemusser/stratacms/internal/app/system/mailer"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// Created in ConnectDB and passed to EnsureSchema, Startup, BuildHandler and
// Shutdown. Shutdown closes the Mongo client.
type DBDeps struct {
	// MongoDB client and database
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Stores over MongoDB collections
	Content *contentstore.Store
	Leads   *leadstore.Store

	// RateLimit is nil when login rate limiting is disabled.
	RateLimit *ratelimit.Store

	// LeadNotifier is nil when email or lead_notify_email is not configured.
	LeadNotifier *mailer.LeadNotifier
}
