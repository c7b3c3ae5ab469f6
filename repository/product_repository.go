package repository

import (
	"context"
	"errors"
	"time"

	"shop-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines the interface for catalog data access.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindAll(ctx context.Context) ([]models.Product, error)
	FindActive(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id, status string) error
}

// MongoProductRepository implements ProductRepository on MongoDB.
type MongoProductRepository struct {
	col *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &MongoProductRepository{col: db.Collection("products")}
}

func (r *MongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	product.CreatedAt = time.Now()
	if product.Status == "" {
		product.Status = models.ProductStatusActive
	}
	res, err := r.col.InsertOne(ctx, product)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		product.ID = oid
	}
	return nil
}

func (r *MongoProductRepository) FindAll(ctx context.Context) ([]models.Product, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoProductRepository) FindActive(ctx context.Context) ([]models.Product, error) {
	return r.find(ctx, bson.M{"status": models.ProductStatusActive})
}

func (r *MongoProductRepository) find(ctx context.Context, filter bson.M) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	products := make([]models.Product, 0)
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrProductNotFound
	}
	var product models.Product
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrProductNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *MongoProductRepository) UpdateStatus(ctx context.Context, id, status string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrProductNotFound
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}
