package mongopostrepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chobi-social/chobi-server/internal/errors"
	"github.com/chobi-social/chobi-server/posts"
)

const (
	collectionName = "posts"
	storeTimeout   = 5 * time.Second
)

var _ posts.PostRepo = (*MongoPostRepo)(nil)

// MongoPostRepo persists posts with embedded likes and comments.
type MongoPostRepo struct {
	col *mongo.Collection
}

func NewMongoPostRepo(db *mongo.Database) *MongoPostRepo {
	return &MongoPostRepo{col: db.Collection(collectionName)}
}

// EnsureIndexes creates the timeline index (author + recency).
func (pr *MongoPostRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	_, err := pr.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return errors.Wrapf(err, "posts.EnsureIndexes")
}

type postDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user"`
	Desc      string             `bson:"desc"`
	Images    []string           `bson:"images"`
	Likes     []string           `bson:"likes"`
	Comments  []posts.Comment    `bson:"comments"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *postDoc) toPost() *posts.Post {
	return &posts.Post{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Desc:      d.Desc,
		Images:    d.Images,
		Likes:     d.Likes,
		Comments:  d.Comments,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (pr *MongoPostRepo) Create(ctx context.Context, post *posts.Post) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	now := time.Now().UTC()
	doc := postDoc{
		ID:        primitive.NewObjectID(),
		UserID:    post.UserID,
		Desc:      post.Desc,
		Images:    post.Images,
		Likes:     []string{},
		Comments:  []posts.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if doc.Images == nil {
		doc.Images = []string{}
	}
	if _, err := pr.col.InsertOne(ctx, doc); err != nil {
		return errors.Wrapf(err, "posts.Create")
	}
	post.ID = doc.ID.Hex()
	post.CreatedAt = now
	post.UpdatedAt = now
	return nil
}

func (pr *MongoPostRepo) GetByID(ctx context.Context, id string) (*posts.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var doc postDoc
	if err := pr.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrapf(err, "posts.GetByID")
	}
	return doc.toPost(), nil
}

func (pr *MongoPostRepo) Timeline(ctx context.Context, authorIDs []string, page, limit int) ([]*posts.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(page * limit)).
		SetLimit(int64(limit))

	cursor, err := pr.col.Find(ctx, bson.M{"user": bson.M{"$in": authorIDs}}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "posts.Timeline")
	}
	defer cursor.Close(ctx)

	timeline := make([]*posts.Post, 0, limit)
	for cursor.Next(ctx) {
		var doc postDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrapf(err, "posts.Timeline decode")
		}
		timeline = append(timeline, doc.toPost())
	}
	return timeline, errors.Wrapf(cursor.Err(), "posts.Timeline cursor")
}

func (pr *MongoPostRepo) UpdateDesc(ctx context.Context, id string, desc string) error {
	return pr.updateByID(ctx, id, bson.M{"$set": bson.M{
		"desc":      desc,
		"updatedAt": time.Now().UTC(),
	}})
}

func (pr *MongoPostRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	res, err := pr.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrapf(err, "posts.Delete")
	}
	if res.DeletedCount == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (pr *MongoPostRepo) AddLike(ctx context.Context, id string, userID string) error {
	return pr.updateByID(ctx, id, bson.M{"$addToSet": bson.M{"likes": userID}})
}

func (pr *MongoPostRepo) RemoveLike(ctx context.Context, id string, userID string) error {
	return pr.updateByID(ctx, id, bson.M{"$pull": bson.M{"likes": userID}})
}

func (pr *MongoPostRepo) AddComment(ctx context.Context, id string, comment posts.Comment) error {
	return pr.updateByID(ctx, id, bson.M{"$push": bson.M{"comments": comment}})
}

func (pr *MongoPostRepo) UpdateComment(ctx context.Context, id string, commentID string, text string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	res, err := pr.col.UpdateOne(ctx,
		bson.M{"_id": oid, "comments.id": commentID},
		bson.M{"$set": bson.M{"comments.$.text": text}},
	)
	if err != nil {
		return errors.Wrapf(err, "posts.UpdateComment")
	}
	if res.MatchedCount == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (pr *MongoPostRepo) RemoveComment(ctx context.Context, id string, commentID string) error {
	return pr.updateByID(ctx, id, bson.M{"$pull": bson.M{"comments": bson.M{"id": commentID}}})
}

func (pr *MongoPostRepo) updateByID(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	res, err := pr.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return errors.Wrapf(err, "posts.updateByID")
	}
	if res.MatchedCount == 0 {
		return errors.ErrNotFound
	}
	return nil
}
