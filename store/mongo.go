package store

import (
	"context"
	"time"

	"civicsense-be/config"
	"civicsense-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists complaints in a MongoDB collection with a 2dsphere
// index backing FindNear.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("complaints")}
}

// EnsureIndexes creates the indexes the lifecycle engine queries rely on:
// geospatial proximity, complaintId uniqueness, and the status/issueType/
// createdAt filters.
func (s *MongoStore) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{
			Keys:    bson.D{{Key: "complaintId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "issueType", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}

	_, err := s.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *MongoStore) Insert(ctx context.Context, c *models.Complaint) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	_, err := s.coll.InsertOne(ctx, c)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateID
	}
	return err
}

func (s *MongoStore) GetByComplaintID(ctx context.Context, complaintID string) (*models.Complaint, error) {
	var c models.Complaint
	err := s.coll.FindOne(ctx, bson.M{"complaintId": complaintID}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindNear runs a $near query against the 2dsphere index. Mongo returns
// $near results in ascending distance order already.
func (s *MongoStore) FindNear(ctx context.Context, pt models.Point, radiusMeters float64, f NearFilter) ([]models.Complaint, error) {
	filter := bson.M{
		"location": bson.M{
			"$near": bson.M{
				"$geometry":    pt,
				"$maxDistance": radiusMeters,
			},
		},
	}
	if f.IssueType != "" {
		filter["issueType"] = f.IssueType
	}
	if f.Status != "" {
		filter["status"] = f.Status
	} else if f.ExcludeResolved {
		filter["status"] = bson.M{"$ne": models.Resolved}
	}

	cursor, err := s.coll.Find(ctx, filter, options.Find().SetLimit(config.NearbyResultLimit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.Complaint
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) IncrementUpvotes(ctx context.Context, complaintID string) (int, error) {
	var c models.Complaint
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"complaintId": complaintID},
		bson.M{
			"$inc": bson.M{"upvotes": 1, "version": 1},
			"$set": bson.M{"updatedAt": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return c.Upvotes, nil
}

// Update replaces the record guarded by the version the caller read. A zero
// match means someone else got there first.
func (s *MongoStore) Update(ctx context.Context, c *models.Complaint) error {
	prev := c.Version
	c.Version = prev + 1
	c.UpdatedAt = time.Now()

	res, err := s.coll.ReplaceOne(ctx, bson.M{"complaintId": c.ComplaintID, "version": prev}, c)
	if err != nil {
		c.Version = prev
		return err
	}
	if res.MatchedCount == 0 {
		c.Version = prev
		return ErrConflict
	}
	return nil
}

func (s *MongoStore) FindByReporterAndTitle(ctx context.Context, reporter primitive.ObjectID, title string) (*models.Complaint, error) {
	var c models.Complaint
	err := s.coll.FindOne(ctx, bson.M{"createdBy": reporter, "title": title}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) List(ctx context.Context, f ListFilter) ([]models.Complaint, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}
	if f.EscalatedOnly {
		filter["escalated"] = true
	}
	if f.Search != "" {
		filter["$or"] = []bson.M{
			{"complaintId": bson.M{"$regex": f.Search, "$options": "i"}},
			{"issueType": bson.M{"$regex": f.Search, "$options": "i"}},
			{"area": bson.M{"$regex": f.Search, "$options": "i"}},
			{"title": bson.M{"$regex": f.Search, "$options": "i"}},
		}
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 100
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var out []models.Complaint
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *MongoStore) CountByStatus(ctx context.Context) (map[models.Status]int64, error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.Status `bson:"_id"`
		Count  int64         `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[models.Status]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (s *MongoStore) CountByPriority(ctx context.Context, p models.Priority) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{"priority": p})
}

func (s *MongoStore) ResolutionDays(ctx context.Context) ([]float64, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"status": models.Resolved}},
		{"$project": bson.M{
			"days": bson.M{
				"$divide": []interface{}{
					bson.M{"$subtract": []interface{}{"$updatedAt", "$createdAt"}},
					1000 * 60 * 60 * 24,
				},
			},
		}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Days float64 `bson:"days"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	days := make([]float64, 0, len(rows))
	for _, r := range rows {
		days = append(days, r.Days)
	}
	return days, nil
}
