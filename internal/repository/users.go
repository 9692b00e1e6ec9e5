package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-order-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrUserNotFound = errors.New("usuario no encontrado")

// MongoUserDirectory lee la colección users que mantiene el storefront.
// Este servicio solo consulta perfiles e incrementa contadores.
type MongoUserDirectory struct {
	col *mongo.Collection
}

func NewMongoUserDirectory(db *mongo.Database) *MongoUserDirectory {
	return &MongoUserDirectory{col: db.Collection("users")}
}

// FindUIDByEmail devuelve el uid del primer usuario con ese email, o "" si no
// hay ninguno (compras de invitados).
func (u *MongoUserDirectory) FindUIDByEmail(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", nil
	}

	var doc struct {
		ID string `bson:"_id"`
	}
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	err := u.col.FindOne(ctx, bson.M{"email": email}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return doc.ID, nil
}

// IncrementOrderStats suma la orden a los contadores del usuario con $inc,
// sin leer el documento antes.
func (u *MongoUserDirectory) IncrementOrderStats(ctx context.Context, uid string, amount float64, at time.Time) error {
	update := bson.M{
		"$inc": bson.M{
			"total_orders":   1,
			"lifetime_value": amount,
		},
		"$set": bson.M{"last_order_at": at},
	}
	res, err := u.col.UpdateOne(ctx, bson.M{"_id": uid}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (u *MongoUserDirectory) GetProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	var doc bson.M
	err := u.col.FindOne(ctx, bson.M{"_id": uid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return profileFromDoc(uid, doc)
}

func profileFromDoc(uid string, doc bson.M) (*model.UserProfile, error) {
	last, err := model.ToInstant(doc["last_order_at"])
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", uid, err)
	}

	p := &model.UserProfile{
		UID:           uid,
		TotalOrders:   int64(toFloat(doc["total_orders"])),
		LifetimeValue: toFloat(doc["lifetime_value"]),
		LastOrderAt:   last,
	}
	p.Email, _ = doc["email"].(string)
	p.Name, _ = doc["name"].(string)
	return p, nil
}

// Los contadores los escriben tanto el storefront (JS, double) como $inc (int32).
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}
