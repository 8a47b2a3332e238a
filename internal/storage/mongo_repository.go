package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sandeepkv93/dharmasync/internal/model"
)

const (
	DriverMongo = "mongo"

	tasksCollection    = "tasks"
	progressCollection = "usertaskprogresses"
	usersCollection    = "users"
)

type taskDoc struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"userId"`
	Title       string    `bson:"title"`
	Description string    `bson:"description,omitempty"`
	Category    string    `bson:"category"`
	Priority    string    `bson:"priority"`
	Completed   bool      `bson:"completed"`
	DueDate     string    `bson:"dueDate,omitempty"`
	Time        string    `bson:"time,omitempty"`
	CreatedAt   time.Time `bson:"createdAt"`
	IsDefault   bool      `bson:"isDefault"`
}

type progressDoc struct {
	UserID         string    `bson:"userId"`
	Date           time.Time `bson:"date"`
	CompletedTasks int       `bson:"completedTasks"`
	TotalTasks     int       `bson:"totalTasks"`
}

type userDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password"`
	Gender       string    `bson:"gender,omitempty"`
	Address      string    `bson:"address,omitempty"`
	Age          int       `bson:"age,omitempty"`
	Image        string    `bson:"image,omitempty"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

// MongoRepository stores users, tasks and progress in the tasks, progress
// and users collections with camelCase field names.
type MongoRepository struct {
	client   *mongo.Client
	tasks    *mongo.Collection
	progress *mongo.Collection
	users    *mongo.Collection
}

func NewMongoRepository(client *mongo.Client, database string) (*MongoRepository, error) {
	if client == nil {
		return nil, errors.New("storage: nil mongo client")
	}
	if strings.TrimSpace(database) == "" {
		return nil, errors.New("storage: mongo database name is required")
	}
	db := client.Database(database)
	return &MongoRepository{
		client:   client,
		tasks:    db.Collection(tasksCollection),
		progress: db.Collection(progressCollection),
		users:    db.Collection(usersCollection),
	}, nil
}

func OpenMongo(ctx context.Context, uri, database string) (*MongoRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	repo, err := NewMongoRepository(client, database)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return repo, nil
}

// EnsureIndexes creates the lookup and uniqueness indexes.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.tasks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}},
	}); err != nil {
		return fmt.Errorf("index tasks: %w", err)
	}
	if _, err := r.progress.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("index progress: %w", err)
	}
	if _, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("index users: %w", err)
	}
	return nil
}

func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func (r *MongoRepository) CreateTask(ctx context.Context, in model.Task) error {
	_, err := r.tasks.InsertOne(ctx, toTaskDoc(in))
	return err
}

// SeedTasks is a count followed by one InsertMany. Without a session
// transaction two first reads racing on the same day can both seed.
func (r *MongoRepository) SeedTasks(ctx context.Context, filter TaskListFilter, seed []model.Task) (bool, error) {
	if filter.UserID == "" {
		return false, ErrMissingUserID
	}
	n, err := r.tasks.CountDocuments(ctx, taskFilter(filter))
	if err != nil {
		return false, fmt.Errorf("count before seed: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	docs := make([]any, 0, len(seed))
	for _, task := range seed {
		docs = append(docs, toTaskDoc(task))
	}
	if len(docs) == 0 {
		return false, nil
	}
	if _, err := r.tasks.InsertMany(ctx, docs); err != nil {
		return false, fmt.Errorf("insert seed: %w", err)
	}
	return true, nil
}

func (r *MongoRepository) GetTask(ctx context.Context, userID, id string) (model.Task, error) {
	var doc taskDoc
	err := r.tasks.FindOne(ctx, bson.D{{Key: "_id", Value: id}, {Key: "userId", Value: userID}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) SetTaskCompleted(ctx context.Context, userID, id string, completed bool) (model.Task, error) {
	var doc taskDoc
	err := r.tasks.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "userId", Value: userID}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "completed", Value: completed}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error) {
	if filter.UserID == "" {
		return nil, ErrMissingUserID
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	cur, err := r.tasks.Find(ctx, taskFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []taskDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toModel())
	}
	return out, nil
}

func (r *MongoRepository) CountTasks(ctx context.Context, filter TaskListFilter) (int, error) {
	if filter.UserID == "" {
		return 0, ErrMissingUserID
	}
	n, err := r.tasks.CountDocuments(ctx, taskFilter(filter))
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *MongoRepository) UpsertProgress(ctx context.Context, in model.ProgressRecord) error {
	if err := in.Validate(); err != nil {
		return err
	}
	_, err := r.progress.UpdateOne(ctx,
		bson.D{{Key: "userId", Value: in.UserID}, {Key: "date", Value: in.Day.Start()}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "completedTasks", Value: in.CompletedTasks},
			{Key: "totalTasks", Value: in.TotalTasks},
		}}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *MongoRepository) GetProgress(ctx context.Context, userID string, day model.Day) (model.ProgressRecord, error) {
	var doc progressDoc
	err := r.progress.FindOne(ctx, bson.D{{Key: "userId", Value: userID}, {Key: "date", Value: day.Start()}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.ProgressRecord{}, ErrNotFound
		}
		return model.ProgressRecord{}, err
	}
	return model.ProgressRecord{UserID: userID, Day: day, CompletedTasks: doc.CompletedTasks, TotalTasks: doc.TotalTasks}, nil
}

func (r *MongoRepository) ListProgress(ctx context.Context, filter ProgressListFilter) ([]model.ProgressRecord, error) {
	if filter.UserID == "" {
		return nil, ErrMissingUserID
	}
	if filter.From.IsZero() || filter.To.IsZero() {
		return nil, fmt.Errorf("%w: progress range requires both bounds", model.ErrInvalidDay)
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cur, err := r.progress.Find(ctx, bson.D{
		{Key: "userId", Value: filter.UserID},
		{Key: "date", Value: bson.D{{Key: "$gte", Value: filter.From.Start()}, {Key: "$lte", Value: filter.To.Start()}}},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []progressDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	loc := filter.From.Location()
	out := make([]model.ProgressRecord, 0, len(docs))
	for _, doc := range docs {
		out = append(out, model.ProgressRecord{
			UserID:         doc.UserID,
			Day:            model.DayOf(doc.Date, loc),
			CompletedTasks: doc.CompletedTasks,
			TotalTasks:     doc.TotalTasks,
		})
	}
	return out, nil
}

func (r *MongoRepository) CreateUser(ctx context.Context, in model.User) error {
	doc := userDoc(in)
	doc.Email = strings.ToLower(doc.Email)
	_, err := r.users.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}

func (r *MongoRepository) GetUser(ctx context.Context, id string) (model.User, error) {
	return r.findUser(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *MongoRepository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findUser(ctx, bson.D{{Key: "email", Value: strings.ToLower(email)}})
}

func (r *MongoRepository) UpdateUser(ctx context.Context, in model.User) error {
	res, err := r.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: in.ID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "name", Value: in.Name},
			{Key: "email", Value: strings.ToLower(in.Email)},
			{Key: "gender", Value: in.Gender},
			{Key: "address", Value: in.Address},
			{Key: "age", Value: in.Age},
			{Key: "image", Value: in.Image},
			{Key: "updatedAt", Value: in.UpdatedAt.UTC()},
		}}},
	)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) findUser(ctx context.Context, filter bson.D) (model.User, error) {
	var doc userDoc
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	return model.User(doc), nil
}

func taskFilter(filter TaskListFilter) bson.D {
	out := bson.D{{Key: "userId", Value: filter.UserID}}
	created := bson.D{}
	if !filter.From.IsZero() {
		created = append(created, bson.E{Key: "$gte", Value: filter.From.UTC()})
	}
	if !filter.To.IsZero() {
		created = append(created, bson.E{Key: "$lt", Value: filter.To.UTC()})
	}
	if len(created) > 0 {
		out = append(out, bson.E{Key: "createdAt", Value: created})
	}
	if filter.Completed != nil {
		out = append(out, bson.E{Key: "completed", Value: *filter.Completed})
	}
	return out
}

func toTaskDoc(in model.Task) taskDoc {
	return taskDoc{
		ID:          in.ID,
		UserID:      in.UserID,
		Title:       in.Title,
		Description: in.Description,
		Category:    string(in.Category),
		Priority:    string(in.Priority),
		Completed:   in.Completed,
		DueDate:     in.DueDate,
		Time:        in.Time,
		CreatedAt:   in.CreatedAt.UTC(),
		IsDefault:   in.IsDefault,
	}
}

func (d taskDoc) toModel() model.Task {
	return model.Task{
		ID:          d.ID,
		UserID:      d.UserID,
		Title:       d.Title,
		Description: d.Description,
		Category:    model.Category(d.Category),
		Priority:    model.Priority(d.Priority),
		Completed:   d.Completed,
		DueDate:     d.DueDate,
		Time:        d.Time,
		CreatedAt:   d.CreatedAt.UTC(),
		IsDefault:   d.IsDefault,
	}
}
