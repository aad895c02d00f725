package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"sharenotes/cmd/internal/contract"
	"sharenotes/cmd/internal/domain/events"
	"sharenotes/cmd/internal/domain/policy"
	"sharenotes/cmd/internal/domain/sqlite/repository"
	cognitoclient "sharenotes/cmd/internal/infrastructure/aws/cognito"
	"sharenotes/cmd/internal/testutil"
	"sharenotes/cmd/internal/utils/validators"
)

type dispatched struct {
	userIDs []int64
	evt     events.SocketEvent
}

// recordingDispatcher keeps every event handed to it.
type recordingDispatcher struct {
	mu   sync.Mutex
	sent []dispatched
}

func (d *recordingDispatcher) DispatchToUsers(_ context.Context, userIDs []int64, evt events.SocketEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, dispatched{userIDs: userIDs, evt: evt})
}

// waitFor blocks until an event of type typ was dispatched and returns it.
func (d *recordingDispatcher) waitFor(t *testing.T, typ contract.EventType) dispatched {
	t.Helper()

	var found dispatched
	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		for _, sent := range d.sent {
			if sent.evt.GetType() == typ {
				found = sent
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond, "no %s event dispatched", typ)
	return found
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	failPut bool
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) UploadFile(_ context.Context, data []byte, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut {
		return "", context.DeadlineExceeded
	}
	f.objects[key] = data
	return key, nil
}

func (f *fakeS3) DeleteFile(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeS3) URL(key string) string {
	return "https://cdn.example.com/" + key
}

func (f *fakeS3) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

type fakeCognito struct {
	signUpErr  error
	confirmErr error
	signedUp   []string
	deleted    []string
	resent     []string
}

func (f *fakeCognito) SignUp(_ context.Context, user *cognitoclient.User) (string, error) {
	if f.signUpErr != nil {
		return "", f.signUpErr
	}
	f.signedUp = append(f.signedUp, user.Email)
	return "sub-" + user.Email, nil
}

func (f *fakeCognito) SignIn(_ context.Context, user *cognitoclient.UserLogin) (*cognitoclient.AuthCreate, error) {
	return &cognitoclient.AuthCreate{AccessToken: "access-" + user.Email, IDToken: "id-" + user.Email}, nil
}

func (f *fakeCognito) GlobalSignOut(context.Context, string) error {
	return nil
}

func (f *fakeCognito) ConfirmAccount(context.Context, *cognitoclient.UserConfirmation) error {
	return f.confirmErr
}

func (f *fakeCognito) ResendConfirmation(_ context.Context, email string) error {
	f.resent = append(f.resent, email)
	return nil
}

func (f *fakeCognito) AdminDeleteUser(_ context.Context, email string) error {
	f.deleted = append(f.deleted, email)
	return nil
}

type fixture struct {
	db       *gorm.DB
	events   *recordingDispatcher
	s3       *fakeS3
	cognito  *fakeCognito
	notes    *NoteService
	shares   *ShareService
	profiles *ProfileService
	users    *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	noteRepo := repository.NewNoteRepository(db)
	shareRepo := repository.NewShareRepository(db)
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	validate := validators.New()
	sharePolicy := policy.NewSharePolicy()
	dispatcher := &recordingDispatcher{}
	s3 := newFakeS3()
	cognito := &fakeCognito{}

	return &fixture{
		db:       db,
		events:   dispatcher,
		s3:       s3,
		cognito:  cognito,
		notes:    NewNoteService(noteRepo, shareRepo, sharePolicy, dispatcher, validate, time.Second),
		shares:   NewShareService(noteRepo, shareRepo, userRepo, profileRepo, sharePolicy, dispatcher, validate, time.Second),
		profiles: NewProfileService(profileRepo, userRepo, s3, policy.NewUserPolicy(), dispatcher, validate, time.Second),
		users:    NewUserService(userRepo, profileRepo, validate, cognito, time.Second),
	}
}

func ptr[T any](v T) *T {
	return &v
}
