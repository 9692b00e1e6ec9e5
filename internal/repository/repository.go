package repository

import (
	"context"
	"errors"
	"time"

	"storefront-order-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound      = errors.New("orden no encontrada")
	ErrAlreadyExists = errors.New("la orden ya existe")
	ErrConflict      = errors.New("el estado actual de la orden no permite la transición")
)

// StatusChange describe una escritura de estado condicionada al estado actual.
// Stamp es el prefijo del par <stamp>_at / <stamp>_by que se setea una sola vez.
type StatusChange struct {
	From     []model.Status
	To       model.Status
	Stamp    string
	Actor    model.Actor
	Tracking *model.Tracking
	At       time.Time
}

// Mongo implementation
type MongoOrderRepository struct {
	col *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{col: db.Collection("orders")}
}

// EnsureIndexes crea los índices de las consultas del admin y de "mis órdenes".
// El _id ya es único y es lo que garantiza una orden por sesión.
func (m *MongoOrderRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "customer_uid", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "order_number", Value: 1}}},
	})
	return err
}

// Create inserta la orden usando el id de sesión como _id. El índice único de
// _id hace que el insert sea un create-if-absent atómico: si dos llamadas
// compiten solo una gana, la otra recibe ErrAlreadyExists.
func (m *MongoOrderRepository) Create(ctx context.Context, o *model.Order) error {
	_, err := m.col.InsertOne(ctx, o)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyExists
	}
	return err
}

func (m *MongoOrderRepository) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var res model.Order
	err := m.col.FindOne(ctx, bson.M{"_id": orderID}).Decode(&res)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdateStatus aplica el cambio solo si el estado actual está en From y el
// timestamp de la transición nunca fue seteado. Si no matchea, distingue
// entre orden inexistente y conflicto de estado.
func (m *MongoOrderRepository) UpdateStatus(ctx context.Context, orderID string, ch StatusChange) error {
	atField := ch.Stamp + "_at"
	byField := ch.Stamp + "_by"

	filter := bson.M{
		"_id":    orderID,
		"status": bson.M{"$in": ch.From},
		atField:  bson.M{"$exists": false},
	}

	set := bson.M{
		"status":     ch.To,
		"updated_at": ch.At,
		atField:      ch.At,
		byField:      ch.Actor,
	}
	if ch.Tracking != nil {
		set["tracking"] = ch.Tracking
	}

	res, err := m.col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := m.col.CountDocuments(ctx, bson.M{"_id": orderID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func (m *MongoOrderRepository) Delete(ctx context.Context, orderID string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": orderID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoOrderRepository) FindAll(ctx context.Context) ([]*model.Order, error) {
	return m.find(ctx, bson.M{})
}

func (m *MongoOrderRepository) FindByStatus(ctx context.Context, status model.Status) ([]*model.Order, error) {
	return m.find(ctx, bson.M{"status": status})
}

func (m *MongoOrderRepository) FindByCustomerUID(ctx context.Context, uid string) ([]*model.Order, error) {
	return m.find(ctx, bson.M{"customer_uid": uid})
}

func (m *MongoOrderRepository) find(ctx context.Context, filter bson.M) ([]*model.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*model.Order{}
	for cur.Next(ctx) {
		var v model.Order
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}
