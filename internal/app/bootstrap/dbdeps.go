// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app. Consumers
// open their own channels on the shared RabbitMQ connection.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Redis         *redis.Client
	RabbitConn    *amqp.Connection
}
