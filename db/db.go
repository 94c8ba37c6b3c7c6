package db

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UserCollection          *mongo.Collection
	AvailabilityCollection  *mongo.Collection
	AppointmentsCollection  *mongo.Collection
	NotificationsCollection *mongo.Collection
	MeetingsCollection      *mongo.Collection
	Client                  *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	clientOptions := options.Client().ApplyURI(uri)
	var err error
	Client, err = mongo.Connect(context.TODO(), clientOptions)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	dbName := os.Getenv("MONGODB_DB")
	if dbName == "" {
		dbName = "mentradb"
	}

	UserCollection = Client.Database(dbName).Collection("users")
	AvailabilityCollection = Client.Database(dbName).Collection("availability")
	AppointmentsCollection = Client.Database(dbName).Collection("appointments")
	NotificationsCollection = Client.Database(dbName).Collection("notifications")
	MeetingsCollection = Client.Database(dbName).Collection("meetings")
}
