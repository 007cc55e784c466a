package mongouserrepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chobi-social/chobi-server/internal/errors"
	"github.com/chobi-social/chobi-server/users"
)

const (
	collectionName = "users"

	// storeTimeout bounds every store call. A slow store surfaces as an
	// internal error, not an authentication failure.
	storeTimeout = 5 * time.Second
)

var _ users.UserRepo = (*MongoUserRepo)(nil)

// MongoUserRepo persists user records in a MongoDB collection. Refresh
// token whitelist mutations are expressed as single update operations
// ($push, $pull, positional $set, pipeline updates) so concurrent requests
// for the same user never lose writes to a read-modify-write race.
type MongoUserRepo struct {
	col *mongo.Collection
}

func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{col: db.Collection(collectionName)}
}

// EnsureIndexes creates the unique identity indexes and the whitelist
// lookup index. Safe to call on every startup.
func (ur *MongoUserRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	_, err := ur.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "refreshTokens", Value: 1}}},
	})
	return errors.Wrapf(err, "users.EnsureIndexes")
}

type userDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Username       string             `bson:"username"`
	Email          string             `bson:"email"`
	PasswordHash   string             `bson:"password"`
	ProfilePicture string             `bson:"profilePicture,omitempty"`
	CoverPicture   string             `bson:"coverPicture,omitempty"`
	Followers      []string           `bson:"followers"`
	Following      []string           `bson:"following"`
	IsAdmin        bool               `bson:"isAdmin"`
	Desc           string             `bson:"desc,omitempty"`
	City           string             `bson:"city,omitempty"`
	Country        string             `bson:"country,omitempty"`
	DOB            *time.Time         `bson:"dob,omitempty"`
	RefreshTokens  []string           `bson:"refreshTokens"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d *userDoc) toUser() *users.User {
	return &users.User{
		ID:             d.ID.Hex(),
		Username:       d.Username,
		Email:          d.Email,
		PasswordHash:   d.PasswordHash,
		ProfilePicture: d.ProfilePicture,
		CoverPicture:   d.CoverPicture,
		Followers:      d.Followers,
		Following:      d.Following,
		IsAdmin:        d.IsAdmin,
		Desc:           d.Desc,
		City:           d.City,
		Country:        d.Country,
		DOB:            d.DOB,
		RefreshTokens:  d.RefreshTokens,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func (ur *MongoUserRepo) Create(ctx context.Context, user *users.User) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	now := time.Now().UTC()
	doc := userDoc{
		ID:            primitive.NewObjectID(),
		Username:      user.Username,
		Email:         user.Email,
		PasswordHash:  user.PasswordHash,
		Followers:     []string{},
		Following:     []string{},
		RefreshTokens: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := ur.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.ErrConflict
		}
		return errors.Wrapf(err, "users.Create")
	}
	user.ID = doc.ID.Hex()
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (ur *MongoUserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.ErrNotFound
	}
	return ur.findOne(ctx, bson.M{"_id": oid})
}

func (ur *MongoUserRepo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	return ur.findOne(ctx, bson.M{"username": username})
}

func (ur *MongoUserRepo) GetByRefreshToken(ctx context.Context, token string) (*users.User, error) {
	return ur.findOne(ctx, bson.M{"refreshTokens": token})
}

func (ur *MongoUserRepo) findOne(ctx context.Context, filter bson.M) (*users.User, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var doc userDoc
	if err := ur.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrapf(err, "users.findOne")
	}
	return doc.toUser(), nil
}

func (ur *MongoUserRepo) UpdateProfile(ctx context.Context, id string, update users.ProfileUpdate) (*users.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.ErrNotFound
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Username != nil {
		set["username"] = users.NormalizeUsername(*update.Username)
	}
	if update.Desc != nil {
		set["desc"] = *update.Desc
	}
	if update.City != nil {
		set["city"] = *update.City
	}
	if update.Country != nil {
		set["country"] = *update.Country
	}
	if update.DOB != nil {
		set["dob"] = *update.DOB
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var doc userDoc
	err = ur.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, errors.ErrConflict
		}
		return nil, errors.Wrapf(err, "users.UpdateProfile")
	}
	return doc.toUser(), nil
}

func (ur *MongoUserRepo) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	return ur.updateByID(ctx, id, bson.M{"$set": bson.M{
		"password":  passwordHash,
		"updatedAt": time.Now().UTC(),
	}})
}

func (ur *MongoUserRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	res, err := ur.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrapf(err, "users.Delete")
	}
	if res.DeletedCount == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (ur *MongoUserRepo) AddRefreshToken(ctx context.Context, id string, token string) error {
	return ur.updateByID(ctx, id, bson.M{"$push": bson.M{"refreshTokens": token}})
}

func (ur *MongoUserRepo) RemoveRefreshToken(ctx context.Context, id string, token string) error {
	return ur.updateByID(ctx, id, bson.M{"$pull": bson.M{"refreshTokens": token}})
}

// SwapRefreshToken is the rotation compare-and-swap: the filter matches only
// while oldToken is still whitelisted and the positional operator replaces
// that one element. When two refreshes race, exactly one update matches.
func (ur *MongoUserRepo) SwapRefreshToken(ctx context.Context, id string, oldToken, newToken string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	res, err := ur.col.UpdateOne(ctx,
		bson.M{"_id": oid, "refreshTokens": oldToken},
		bson.M{"$set": bson.M{"refreshTokens.$": newToken}},
	)
	if err != nil {
		return errors.Wrapf(err, "users.SwapRefreshToken")
	}
	if res.MatchedCount == 0 {
		return errors.ErrNotFound
	}
	return nil
}

// RotateRefreshTokens removes dropToken (or everything when clearAll is set)
// and appends newToken in a single pipeline update, so the remove and the
// append are one persisted operation.
func (ur *MongoUserRepo) RotateRefreshTokens(ctx context.Context, id string, dropToken string, clearAll bool, newToken string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.ErrNotFound
	}

	var kept interface{}
	if clearAll {
		kept = bson.A{}
	} else {
		kept = bson.M{"$filter": bson.M{
			"input": bson.M{"$ifNull": bson.A{"$refreshTokens", bson.A{}}},
			"cond":  bson.M{"$ne": bson.A{"$$this", dropToken}},
		}}
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	res, err := ur.col.UpdateOne(ctx,
		bson.M{"_id": oid},
		mongo.Pipeline{
			{{Key: "$set", Value: bson.M{
				"refreshTokens": bson.M{"$concatArrays": bson.A{kept, bson.A{newToken}}},
				"updatedAt":     time.Now().UTC(),
			}}},
		},
	)
	if err != nil {
		return errors.Wrapf(err, "users.RotateRefreshTokens")
	}
	if res.MatchedCount == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (ur *MongoUserRepo) ClearRefreshTokens(ctx context.Context, id string) error {
	return ur.updateByID(ctx, id, bson.M{"$set": bson.M{"refreshTokens": bson.A{}}})
}

func (ur *MongoUserRepo) Follow(ctx context.Context, userID, targetID string) error {
	if err := ur.updateByID(ctx, userID, bson.M{"$addToSet": bson.M{"following": targetID}}); err != nil {
		return err
	}
	return ur.updateByID(ctx, targetID, bson.M{"$addToSet": bson.M{"followers": userID}})
}

func (ur *MongoUserRepo) Unfollow(ctx context.Context, userID, targetID string) error {
	if err := ur.updateByID(ctx, userID, bson.M{"$pull": bson.M{"following": targetID}}); err != nil {
		return err
	}
	return ur.updateByID(ctx, targetID, bson.M{"$pull": bson.M{"followers": userID}})
}

func (ur *MongoUserRepo) updateByID(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	res, err := ur.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return errors.Wrapf(err, "users.updateByID")
	}
	if res.MatchedCount == 0 {
		return errors.ErrNotFound
	}
	return nil
}
