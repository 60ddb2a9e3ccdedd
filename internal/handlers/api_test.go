package handlers_test

import (
	"context"
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"golang.org/x/crypto/bcrypt"

	"conduit/internal/auth"
)

var _ = Describe("Authentication", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("logging in a seeded user", func() {
		It("issues a token that resolves back to the same user", func() {
			hash, err := env.hasher.Hash("jakejake")
			Expect(err).NotTo(HaveOccurred())
			jake := seedUser("jake", "jake@jake.jake", hash)

			resp := call(http.MethodPost, "/api/users/login", "", userEnvelope(map[string]any{
				"email": "jake@jake.jake", "password": "jakejake",
			}))
			Expect(resp.Status).To(Equal(http.StatusOK))
			token, _ := field(resp.Body, "user", "token").(string)
			Expect(token).NotTo(BeEmpty())

			who, err := env.resolver.Require(ctx, auth.TokenScheme+token)
			Expect(err).NotTo(HaveOccurred())
			Expect(who.ID).To(Equal(jake.ID))
			Expect(who.Token).To(Equal(token))

			me := call(http.MethodGet, "/api/user", token, nil)
			Expect(me.Status).To(Equal(http.StatusOK))
			Expect(field(me.Body, "user", "username")).To(Equal("jake"))
			Expect(field(me.Body, "user", "token")).To(Equal(token))
		})

		It("answers a wrong password and an unknown email identically", func() {
			hash, err := env.hasher.Hash("secret")
			Expect(err).NotTo(HaveOccurred())
			seedUser("wrongpw", "wrongpw@example.com", hash)

			wrong := call(http.MethodPost, "/api/users/login", "", userEnvelope(map[string]any{
				"email": "wrongpw@example.com", "password": "not-it",
			}))
			unknown := call(http.MethodPost, "/api/users/login", "", userEnvelope(map[string]any{
				"email": "nobody@example.com", "password": "not-it",
			}))

			Expect(wrong.Status).To(Equal(http.StatusUnauthorized))
			Expect(unknown.Status).To(Equal(wrong.Status))
			Expect(unknown.Body).To(Equal(wrong.Body))
			Expect(wrong.Body["error"]).To(Equal(auth.ReasonInvalidCreds))
		})

		It("upgrades a legacy bcrypt hash on successful login", func() {
			legacy, err := bcrypt.GenerateFromPassword([]byte("oldpassword"), bcrypt.MinCost)
			Expect(err).NotTo(HaveOccurred())
			seedUser("legacy", "legacy@example.com", string(legacy))

			resp := call(http.MethodPost, "/api/users/login", "", userEnvelope(map[string]any{
				"email": "legacy@example.com", "password": "oldpassword",
			}))
			Expect(resp.Status).To(Equal(http.StatusOK))

			acc, err := env.repos.Users.FindByEmail(ctx, "legacy@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(acc.Credentials.PasswordHash).To(HavePrefix("$argon2id$"))
			Expect(env.hasher.NeedsRehash(acc.Credentials.PasswordHash)).To(BeFalse())
		})
	})

	Describe("registration", func() {
		It("returns a usable token and rejects duplicates", func() {
			body := userEnvelope(map[string]any{
				"username": "newbie", "email": "newbie@example.com", "password": "hunter22",
			})
			resp := call(http.MethodPost, "/api/users", "", body)
			Expect(resp.Status).To(Equal(http.StatusCreated))
			token, _ := field(resp.Body, "user", "token").(string)
			Expect(call(http.MethodGet, "/api/user", token, nil).Status).To(Equal(http.StatusOK))

			again := call(http.MethodPost, "/api/users", "", body)
			Expect(again.Status).To(Equal(http.StatusConflict))
		})

		It("rejects invalid input with 422", func() {
			resp := call(http.MethodPost, "/api/users", "", userEnvelope(map[string]any{
				"username": "x", "email": "not-an-email", "password": "p",
			}))
			Expect(resp.Status).To(Equal(http.StatusUnprocessableEntity))
		})
	})

	Describe("the Authorization header", func() {
		It("rejects the Bearer scheme and unknown tokens", func() {
			Expect(call(http.MethodGet, "/api/user", "", nil).Status).To(Equal(http.StatusUnauthorized))

			req := call(http.MethodGet, "/api/user", "garbage", nil)
			Expect(req.Status).To(Equal(http.StatusUnauthorized))
			Expect(req.Body["error"]).To(Equal(auth.ReasonInvalidCreds))
		})
	})
})

var _ = Describe("Articles and comments", Ordered, func() {
	var janeToken, jakeToken, slug, commentID string

	register := func(name string) string {
		resp := call(http.MethodPost, "/api/users", "", userEnvelope(map[string]any{
			"username": name, "email": name + "@conduit.test", "password": name + "-password",
		}))
		Expect(resp.Status).To(Equal(http.StatusCreated))
		token, _ := field(resp.Body, "user", "token").(string)
		Expect(token).NotTo(BeEmpty())
		return token
	}

	BeforeAll(func() {
		janeToken = register("jane")
		jakeToken = register("jakob")
	})

	It("lets an author publish an article with tags", func() {
		resp := call(http.MethodPost, "/api/articles", janeToken, map[string]any{"article": map[string]any{
			"title": "How to train your dragon", "description": "Ever wonder how?",
			"body": "You have to believe", "tagList": []string{"dragons", "training", "dragons"},
		}})
		Expect(resp.Status).To(Equal(http.StatusCreated))

		slug, _ = field(resp.Body, "article", "slug").(string)
		Expect(strings.HasPrefix(slug, "how-to-train-your-dragon")).To(BeTrue(), slug)
		Expect(field(resp.Body, "article", "tagList")).To(ConsistOf("dragons", "training"))
		Expect(field(resp.Body, "article", "author", "username")).To(Equal("jane"))

		tags := call(http.MethodGet, "/api/tags", "", nil)
		Expect(tags.Body["tags"]).To(ContainElements("dragons", "training"))
	})

	It("shows the article in a follower's feed", func() {
		Expect(call(http.MethodPost, "/api/profiles/jane/follow", jakeToken, nil).Status).To(Equal(http.StatusOK))

		feed := call(http.MethodGet, "/api/articles/feed", jakeToken, nil)
		Expect(feed.Status).To(Equal(http.StatusOK))
		Expect(feed.Body["articlesCount"]).To(BeNumerically("==", 1))
		Expect(field(feed.Body["articles"].([]any)[0].(map[string]any), "author", "following")).To(Equal(true))
	})

	It("counts favorites per viewer", func() {
		fav := call(http.MethodPost, "/api/articles/"+slug+"/favorite", jakeToken, nil)
		Expect(fav.Status).To(Equal(http.StatusOK))
		Expect(field(fav.Body, "article", "favorited")).To(Equal(true))
		Expect(field(fav.Body, "article", "favoritesCount")).To(BeNumerically("==", 1))

		anon := call(http.MethodGet, "/api/articles/"+slug, "", nil)
		Expect(field(anon.Body, "article", "favorited")).To(Equal(false))
		Expect(field(anon.Body, "article", "favoritesCount")).To(BeNumerically("==", 1))

		list := call(http.MethodGet, "/api/articles?favorited=jakob", "", nil)
		Expect(list.Body["articlesCount"]).To(BeNumerically("==", 1))
	})

	It("forbids non-authors from editing or deleting", func() {
		upd := map[string]any{"article": map[string]any{"body": "hijacked"}}
		Expect(call(http.MethodPut, "/api/articles/"+slug, jakeToken, upd).Status).To(Equal(http.StatusForbidden))
		Expect(call(http.MethodDelete, "/api/articles/"+slug, jakeToken, nil).Status).To(Equal(http.StatusForbidden))
		Expect(call(http.MethodPut, "/api/articles/"+slug, "", upd).Status).To(Equal(http.StatusUnauthorized))

		got := call(http.MethodGet, "/api/articles/"+slug, "", nil)
		Expect(field(got.Body, "article", "body")).To(Equal("You have to believe"))
	})

	It("restricts comment deletion to the comment's author", func() {
		resp := call(http.MethodPost, "/api/articles/"+slug+"/comments", jakeToken,
			map[string]any{"comment": map[string]any{"body": "Thank you so much!"}})
		Expect(resp.Status).To(Equal(http.StatusCreated))
		commentID, _ = field(resp.Body, "comment", "id").(string)

		path := "/api/articles/" + slug + "/comments/" + commentID
		Expect(call(http.MethodDelete, path, janeToken, nil).Status).To(Equal(http.StatusForbidden))
		Expect(call(http.MethodDelete, path, jakeToken, nil).Status).To(Equal(http.StatusNoContent))

		list := call(http.MethodGet, "/api/articles/"+slug+"/comments", "", nil)
		Expect(list.Body["comments"]).To(BeEmpty())
	})

	It("lets the author update and delete", func() {
		upd := call(http.MethodPut, "/api/articles/"+slug, janeToken,
			map[string]any{"article": map[string]any{"title": "Did you train your dragon?"}})
		Expect(upd.Status).To(Equal(http.StatusOK))
		newSlug, _ := field(upd.Body, "article", "slug").(string)
		Expect(newSlug).To(HavePrefix("did-you-train-your-dragon"))

		Expect(call(http.MethodGet, "/api/articles/"+slug, "", nil).Status).To(Equal(http.StatusNotFound))
		Expect(call(http.MethodDelete, "/api/articles/"+newSlug, janeToken, nil).Status).To(Equal(http.StatusNoContent))
		Expect(call(http.MethodGet, "/api/articles/"+newSlug, "", nil).Status).To(Equal(http.StatusNotFound))
	})

	It("reports the database as healthy", func() {
		Expect(call(http.MethodGet, "/health", "", nil).Status).To(Equal(http.StatusOK))
	})
})
