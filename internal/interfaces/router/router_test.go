package router

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	authsvc "hub-backend/internal/application/auth"
	"hub-backend/internal/application/billing"
	"hub-backend/internal/application/mailer"
	"hub-backend/internal/config"
	"hub-backend/internal/domain"
	"hub-backend/internal/infrastructure/database"
	"hub-backend/internal/pkg/wire"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(ctx context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) to(email string) []mailer.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []mailer.Message
	for _, m := range o.sent {
		if m.To == email {
			out = append(out, m)
		}
	}
	return out
}

type cred struct {
	user     *domain.User
	password string
}

func (c cred) basic() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.user.Email+":"+c.password))
}

type testEnv struct {
	app     *fiber.App
	rt      *Runtime
	db      *gorm.DB
	mail    *outbox
	billing *billing.LocalProvider
	joe     cred
	bob     cred
	admin   cred
}

func setupRouterTest(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	env := &testEnv{db: db, mail: &outbox{}, billing: &billing.LocalProvider{}}
	cfg := &config.Config{
		Env:                "test",
		SessionSecret:      "router-test-secret",
		InvitationTemplate: "{{.Key}}",
		InvitationSubject:  "You are invited",
		MailMaxAttempts:    3,
		MailPollInterval:   time.Minute,
		NewUserTTL:         72 * time.Hour,
	}
	env.app, env.rt, err = NewApp(Deps{Config: cfg, DB: db, Rdb: rdb, Mailer: env.mail, Billing: env.billing})
	require.NoError(t, err)

	env.joe = seedUser(t, db, "joe@foo.com", "Joe", domain.RoleUser, 1)
	env.bob = seedUser(t, db, "bob@foo.com", "Bob", domain.RoleUser, 0)
	env.admin = seedUser(t, db, "admin@foo.com", "Ada", domain.RoleAdmin, 0)
	return env
}

func seedUser(t *testing.T, db *gorm.DB, email, first, role string, credits int) cred {
	t.Helper()
	password := first + "pass1"
	hash, err := authsvc.HashPassword(password)
	require.NoError(t, err)
	u := &domain.User{Email: email, FirstName: first, LastName: "Test", PasswordHash: hash, Role: role}
	require.NoError(t, db.Create(u).Error)
	require.NoError(t, db.Create(&domain.InvitationAccount{UserID: u.UserID, OriginalCount: credits, CurrentCount: credits}).Error)
	return cred{user: u, password: password}
}

func (e *testEnv) do(t *testing.T, method, path string, as *cred, headers ...string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if as != nil {
		req.Header.Set("Authorization", as.basic())
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) flush(t *testing.T) {
	t.Helper()
	_, err := e.rt.Dispatcher.Flush(context.Background())
	require.NoError(t, err)
}

func (e *testEnv) account(t *testing.T, id uuid.UUID) domain.InvitationAccount {
	t.Helper()
	var acc domain.InvitationAccount
	require.NoError(t, e.db.Where("user_id = ?", id).First(&acc).Error)
	return acc
}

func decodeData(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	var body struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NoError(t, json.Unmarshal(body.Data, out))
}

func errorKind(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error.Kind
}

func connectionEmails(t *testing.T, e *testEnv, owner cred) []string {
	t.Helper()
	resp := e.do(t, "GET", "/users/"+owner.user.UserID.String()+"/connections", &owner)
	require.Equal(t, 200, resp.StatusCode)
	var list wire.UserInfoList
	decodeData(t, resp, &list)
	emails := []string{}
	for _, u := range list.Users {
		emails = append(emails, u.Email)
	}
	return emails
}

func TestConnections_Basics(t *testing.T) {
	e := setupRouterTest(t)
	joeID, bobID := e.joe.user.UserID.String(), e.bob.user.UserID.String()

	assert.Empty(t, connectionEmails(t, e, e.joe))

	resp := e.do(t, "PUT", "/users/"+joeID+"/connections/"+bobID, &e.joe)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, []string{"bob@foo.com"}, connectionEmails(t, e, e.joe))
	assert.Empty(t, connectionEmails(t, e, e.bob))

	resp = e.do(t, "PUT", "/users/"+joeID+"/connections/"+bobID, &e.joe)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, []string{"bob@foo.com"}, connectionEmails(t, e, e.joe))

	resp = e.do(t, "PUT", "/users/"+joeID+"/connections/"+joeID, &e.joe)
	assert.Equal(t, 403, resp.StatusCode)

	resp = e.do(t, "PUT", "/users/"+joeID+"/connections/"+uuid.NewString(), &e.joe)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestConnections_AccessControl(t *testing.T) {
	e := setupRouterTest(t)
	joeID := e.joe.user.UserID.String()

	resp := e.do(t, "GET", "/users/"+joeID+"/connections", nil)
	assert.Equal(t, 403, resp.StatusCode)

	resp = e.do(t, "GET", "/users/"+joeID+"/connections", &e.bob)
	assert.Equal(t, 403, resp.StatusCode)

	resp = e.do(t, "GET", "/users/"+joeID+"/connections", &e.admin)
	assert.Equal(t, 200, resp.StatusCode)

	resp = e.do(t, "GET", "/users/"+uuid.NewString()+"/connections", &e.admin)
	assert.Equal(t, 404, resp.StatusCode)

	wrong := cred{user: e.joe.user, password: "nope12345"}
	resp = e.do(t, "GET", "/users/"+joeID+"/connections", &wrong)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestInvite_ExhaustsCredits(t *testing.T) {
	e := setupRouterTest(t)
	joeID := e.joe.user.UserID.String()

	resp := e.do(t, "PUT", "/users/"+joeID+"/invite/new1@foo.com", &e.joe)
	require.Equal(t, 200, resp.StatusCode)
	acc := e.account(t, e.joe.user.UserID)
	assert.Equal(t, 1, acc.OriginalCount)
	assert.Equal(t, 0, acc.CurrentCount)

	resp = e.do(t, "PUT", "/users/"+joeID+"/invite/new2@foo.com", &e.joe)
	assert.Equal(t, 403, resp.StatusCode)

	resp = e.do(t, "PUT", "/users/"+joeID+"/invite/new1@foo.com", &e.joe)
	assert.Equal(t, 409, resp.StatusCode)

	e.flush(t)
	assert.Len(t, e.mail.to("new1@foo.com"), 1)
	assert.Empty(t, e.mail.to("new2@foo.com"))

	var n int64
	require.NoError(t, e.db.Model(&domain.Invitation{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestInvite_ExistingUserConflicts(t *testing.T) {
	e := setupRouterTest(t)
	resp := e.do(t, "PUT", "/users/"+e.joe.user.UserID.String()+"/invite/bob@foo.com", &e.joe)
	assert.Equal(t, 409, resp.StatusCode)
	assert.Equal(t, 1, e.account(t, e.joe.user.UserID).CurrentCount)
}

func TestInvite_OnlyForSelf(t *testing.T) {
	e := setupRouterTest(t)
	resp := e.do(t, "PUT", "/users/"+e.joe.user.UserID.String()+"/invite/new1@foo.com", &e.admin)
	assert.Equal(t, 403, resp.StatusCode)
	assert.Equal(t, 1, e.account(t, e.joe.user.UserID).CurrentCount)
}

// invite sends joe's invitation to email and returns the mailed key.
func (e *testEnv) invite(t *testing.T, email string) string {
	t.Helper()
	resp := e.do(t, "PUT", "/users/"+e.joe.user.UserID.String()+"/invite/"+email, &e.joe)
	require.Equal(t, 200, resp.StatusCode)
	e.flush(t)
	mails := e.mail.to(email)
	require.Len(t, mails, 1)
	return mails[0].Body
}

func (e *testEnv) stage(t *testing.T, email string) string {
	t.Helper()
	nu, err := e.rt.Registration.StageNewUser(context.Background(), "New", "Comer", email)
	require.NoError(t, err)
	return nu.LoginToken
}

func TestRegistration_Handshake(t *testing.T) {
	e := setupRouterTest(t)
	key := e.invite(t, "new1@foo.com")
	token := e.stage(t, "new1@foo.com")

	resp := e.do(t, "PUT", "/login/openid/register/"+token+"?key="+key, nil)
	require.Equal(t, 200, resp.StatusCode)
	var info wire.UserInfo
	decodeData(t, resp, &info)
	assert.Equal(t, "new1@foo.com", info.Email)

	var created domain.User
	require.NoError(t, e.db.Where("email = ?", "new1@foo.com").First(&created).Error)
	assert.Equal(t, domain.RoleUser, created.Role)
	acc := e.account(t, created.UserID)
	assert.Equal(t, domain.InvitedUserCredits, acc.OriginalCount)
	assert.Equal(t, domain.InvitedUserCredits, acc.CurrentCount)

	assert.Equal(t, []string{"new1@foo.com"}, connectionEmails(t, e, e.joe))
	var conns []domain.Connection
	require.NoError(t, e.db.Where("user_id = ?", created.UserID).Find(&conns).Error)
	require.Len(t, conns, 1)
	assert.Equal(t, e.joe.user.UserID, conns[0].ConnectedID)

	var n int64
	require.NoError(t, e.db.Model(&domain.Invitation{}).Where("email = ?", "new1@foo.com").Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, e.db.Model(&domain.NewUser{}).Count(&n).Error)
	assert.Zero(t, n)

	resp = e.do(t, "PUT", "/login/openid/register/"+token+"?key="+key, nil)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestRegistration_InviterRemovedFirst(t *testing.T) {
	e := setupRouterTest(t)
	key := e.invite(t, "new1@foo.com")
	token := e.stage(t, "new1@foo.com")

	resp := e.do(t, "DELETE", "/users/"+e.joe.user.UserID.String(), &e.admin)
	require.Equal(t, 204, resp.StatusCode)

	resp = e.do(t, "PUT", "/login/openid/register/"+token+"?key="+key, nil)
	require.Equal(t, 200, resp.StatusCode)

	var created domain.User
	require.NoError(t, e.db.Where("email = ?", "new1@foo.com").First(&created).Error)
	var n int64
	require.NoError(t, e.db.Model(&domain.Connection{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Equal(t, domain.InvitedUserCredits, e.account(t, created.UserID).CurrentCount)
}

func TestRegistration_InvalidRedemption(t *testing.T) {
	e := setupRouterTest(t)
	e.invite(t, "new1@foo.com")
	token := e.stage(t, "new1@foo.com")

	resp := e.do(t, "PUT", "/login/openid/register/unknown-token?key=x", nil)
	assert.Equal(t, 400, resp.StatusCode)

	resp = e.do(t, "PUT", "/login/openid/register/unknown-token", nil)
	assert.Equal(t, 400, resp.StatusCode)

	resp = e.do(t, "PUT", "/login/openid/register/"+token+"?key=wrong", nil)
	assert.Equal(t, 401, resp.StatusCode)

	resp = e.do(t, "PUT", "/login/openid/register/"+token, nil)
	assert.Equal(t, 401, resp.StatusCode)

	var n int64
	require.NoError(t, e.db.Model(&domain.User{}).Where("email = ?", "new1@foo.com").Count(&n).Error)
	assert.Zero(t, n)
}

func TestSubscription_Lifecycle(t *testing.T) {
	e := setupRouterTest(t)
	path := "/users/" + e.joe.user.UserID.String() + "/subscription"

	var view wire.UserSubscriptionInfo
	resp := e.do(t, "GET", path, &e.joe)
	require.Equal(t, 200, resp.StatusCode)
	decodeData(t, resp, &view)
	assert.Equal(t, "free", view.Product.Handle)
	assert.Empty(t, view.State)

	resp = e.do(t, "POST", path+"?product=small&external_id=1&external_customer_id=c1&cc_masked_number=XXXX-1234&cc_expiration_month=1&cc_expiration_year=2030", &e.joe)
	require.Equal(t, 204, resp.StatusCode)

	resp = e.do(t, "GET", path, &e.joe)
	view = wire.UserSubscriptionInfo{}
	decodeData(t, resp, &view)
	assert.Equal(t, "PENDING", view.State)
	assert.Equal(t, "small", view.Product.Handle)
	require.NotNil(t, view.CreditCard)
	assert.Equal(t, 2030, view.CreditCard.ExpirationYear)

	resp = e.do(t, "PUT", path+"?state=ACTIVE", &e.joe)
	require.Equal(t, 204, resp.StatusCode)

	resp = e.do(t, "PUT", path+"?product=free", &e.joe)
	require.Equal(t, 204, resp.StatusCode)
	calls := e.billing.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "migrate", calls[0].Operation)
	assert.Equal(t, "1", calls[0].ExternalID)

	resp = e.do(t, "DELETE", path, &e.joe)
	require.Equal(t, 204, resp.StatusCode)
	calls = e.billing.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "cancel", calls[1].Operation)

	resp = e.do(t, "GET", path, &e.joe)
	view = wire.UserSubscriptionInfo{}
	decodeData(t, resp, &view)
	assert.Equal(t, "free", view.Product.Handle)
	assert.Empty(t, view.State)
}

func TestSubscription_Violations(t *testing.T) {
	e := setupRouterTest(t)
	path := "/users/" + e.joe.user.UserID.String() + "/subscription"
	create := path + "?product=small&external_id=1&external_customer_id=c1"

	require.Equal(t, 204, e.do(t, "POST", create, &e.joe).StatusCode)
	resp := e.do(t, "POST", create, &e.joe)
	assert.Equal(t, 409, resp.StatusCode)

	resp = e.do(t, "PUT", path+"?product=free", &e.joe)
	assert.Equal(t, 409, resp.StatusCode)

	resp = e.do(t, "PUT", path+"?state=CANCELED", &e.joe)
	assert.Equal(t, 409, resp.StatusCode)
	assert.Empty(t, e.billing.Calls())

	resp = e.do(t, "PUT", path+"?state=BOGUS", &e.joe)
	assert.Equal(t, 400, resp.StatusCode)

	resp = e.do(t, "PUT", path+"?product=missing", &e.joe)
	assert.Equal(t, 404, resp.StatusCode)

	resp = e.do(t, "GET", path, &e.bob)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestSubscription_ProviderFailureLeavesState(t *testing.T) {
	e := setupRouterTest(t)
	path := "/users/" + e.joe.user.UserID.String() + "/subscription"
	require.Equal(t, 204, e.do(t, "POST", path+"?product=small&external_id=1&external_customer_id=c1", &e.joe).StatusCode)
	require.Equal(t, 204, e.do(t, "PUT", path+"?state=ACTIVE", &e.joe).StatusCode)

	e.billing.SetErr(errors.New("provider down"))
	resp := e.do(t, "PUT", path+"?product=free", &e.joe)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "ProviderFailure", errorKind(t, resp))

	resp = e.do(t, "DELETE", path, &e.joe)
	assert.Equal(t, 500, resp.StatusCode)

	var sub domain.UserSubscription
	require.NoError(t, e.db.Where("user_id = ?", e.joe.user.UserID).First(&sub).Error)
	assert.Equal(t, domain.StateActive, sub.State)
	small, err := e.rt.Products.FindByHandle(context.Background(), e.db, "small")
	require.NoError(t, err)
	assert.Equal(t, small.ProductID, sub.ProductID)

	var n int64
	require.NoError(t, e.db.Model(&domain.ProviderDivergence{}).Count(&n).Error)
	assert.Zero(t, n)

	e.billing.SetErr(nil)
	resp = e.do(t, "PUT", path+"?state=CANCELED", &e.joe)
	assert.Equal(t, 204, resp.StatusCode)
	require.NoError(t, e.db.Where("user_id = ?", e.joe.user.UserID).First(&sub).Error)
	assert.Equal(t, domain.StateCanceled, sub.State)
}

func TestRemoveUser_CancelsActiveSubscription(t *testing.T) {
	e := setupRouterTest(t)
	path := "/users/" + e.joe.user.UserID.String() + "/subscription"
	require.Equal(t, 204, e.do(t, "POST", path+"?product=small&external_id=7&external_customer_id=c7", &e.joe).StatusCode)
	require.Equal(t, 204, e.do(t, "PUT", path+"?state=ACTIVE", &e.joe).StatusCode)
	require.Equal(t, 200, e.do(t, "PUT", "/users/"+e.bob.user.UserID.String()+"/connections/"+e.joe.user.UserID.String(), &e.bob).StatusCode)

	resp := e.do(t, "DELETE", "/users/"+e.joe.user.UserID.String(), &e.joe)
	assert.Equal(t, 403, resp.StatusCode)

	resp = e.do(t, "DELETE", "/users/"+e.joe.user.UserID.String(), &e.admin)
	require.Equal(t, 204, resp.StatusCode)

	calls := e.billing.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "cancel", calls[0].Operation)
	assert.Equal(t, "7", calls[0].ExternalID)
	assert.Empty(t, connectionEmails(t, e, e.bob))

	resp = e.do(t, "DELETE", "/users/"+e.joe.user.UserID.String(), &e.admin)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestAdminCreateUser(t *testing.T) {
	e := setupRouterTest(t)
	body, _ := json.Marshal(map[string]string{
		"email": "Carol@Foo.com", "first_name": "Carol", "last_name": "Test", "password": "carolpass1",
	})
	post := func(as *cred) *http.Response {
		req := httptest.NewRequest("POST", "/users", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if as != nil {
			req.Header.Set("Authorization", as.basic())
		}
		resp, err := e.app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	assert.Equal(t, 403, post(&e.joe).StatusCode)

	resp := post(&e.admin)
	require.Equal(t, 200, resp.StatusCode)
	var info wire.UserInfo
	decodeData(t, resp, &info)
	assert.Equal(t, "carol@foo.com", info.Email)

	assert.Equal(t, 409, post(&e.admin).StatusCode)

	carol := cred{user: &domain.User{Email: "carol@foo.com"}, password: "carolpass1"}
	resp = e.do(t, "GET", "/users/bob%40foo.com", &carol)
	require.Equal(t, 200, resp.StatusCode)
	decodeData(t, resp, &info)
	assert.Equal(t, e.bob.user.UserID.String(), info.ID)
}

func TestAdminCreateUser_Binary(t *testing.T) {
	e := setupRouterTest(t)
	reg := &wire.RegistrationInfo{Email: "dave@foo.com", FirstName: "Dave", LastName: "Test", Password: "davepass1"}
	req := httptest.NewRequest("POST", "/users", bytes.NewReader(wire.Marshal(reg)))
	req.Header.Set("Content-Type", wire.ContentType)
	req.Header.Set("Accept", wire.ContentType)
	req.Header.Set("Authorization", e.admin.basic())
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, wire.ContentType, resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var info wire.UserInfo
	require.NoError(t, info.UnmarshalWire(raw))
	assert.Equal(t, "dave@foo.com", info.Email)
	assert.NotEmpty(t, info.ID)
}

func TestProfile_UnknownEmail(t *testing.T) {
	e := setupRouterTest(t)
	resp := e.do(t, "GET", "/users/nobody%40foo.com", &e.joe)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "NotFound", errorKind(t, resp))
}

func TestLogin_BearerRoundTrip(t *testing.T) {
	e := setupRouterTest(t)
	resp := e.do(t, "GET", "/login", &e.joe)
	require.Equal(t, 200, resp.StatusCode)
	var login wire.LoginInfo
	decodeData(t, resp, &login)
	assert.Equal(t, "joe@foo.com", login.Email)
	require.NotEmpty(t, login.AuthToken)

	bearer := "Bearer " + login.AuthToken
	resp = e.do(t, "GET", "/products", nil, "Authorization", bearer)
	require.Equal(t, 200, resp.StatusCode)
	var products wire.ProductInfoList
	decodeData(t, resp, &products)
	require.Len(t, products.Products, 2)
	assert.Equal(t, "free", products.Products[0].Handle)
	assert.Equal(t, "small", products.Products[1].Handle)

	resp = e.do(t, "DELETE", "/login", nil, "Authorization", bearer)
	assert.Equal(t, 204, resp.StatusCode)

	resp = e.do(t, "GET", "/products", nil, "Authorization", bearer)
	assert.Equal(t, 403, resp.StatusCode)

	resp = e.do(t, "DELETE", "/login", &e.joe)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestAnonymousRequests(t *testing.T) {
	e := setupRouterTest(t)
	assert.Equal(t, 403, e.do(t, "GET", "/products", nil).StatusCode)
	assert.Equal(t, 403, e.do(t, "GET", "/login", nil).StatusCode)
	assert.Equal(t, 200, e.do(t, "GET", "/health/json", nil).StatusCode)

	resp := e.do(t, "PUT", "/prospects/someone%40foo.com", nil)
	assert.Equal(t, 200, resp.StatusCode)
	var n int64
	require.NoError(t, e.db.Model(&domain.Prospect{}).Where("email = ?", "someone@foo.com").Count(&n).Error)
	assert.Equal(t, int64(1), n)

	assert.Equal(t, 200, e.do(t, "PUT", "/prospects/someone%40foo.com", nil).StatusCode)
	assert.Equal(t, 400, e.do(t, "PUT", "/prospects/not-an-email", nil).StatusCode)
}

func TestMalformedTargetID(t *testing.T) {
	e := setupRouterTest(t)
	resp := e.do(t, "GET", "/users/not-a-uuid/subscription", &e.admin)
	assert.Equal(t, 404, resp.StatusCode)
}

type closingMailer struct {
	outbox
	closed bool
}

func (m *closingMailer) Close() error {
	m.closed = true
	return nil
}

func TestRuntimeClose_ReleasesMailTransport(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mail := &closingMailer{}
	cfg := &config.Config{Env: "test", SessionSecret: "s", InvitationTemplate: "{{.Key}}", MailMaxAttempts: 1, MailPollInterval: time.Minute}

	_, rt, err := NewApp(Deps{Config: cfg, DB: db, Rdb: rdb, Mailer: mail, Billing: &billing.LocalProvider{}})
	require.NoError(t, err)
	assert.Same(t, mail, rt.Mailer)

	rt.Close()
	assert.True(t, mail.closed)
	assert.Error(t, rdb.Ping(context.Background()).Err())
}
