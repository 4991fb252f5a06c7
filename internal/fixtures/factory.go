// Package fixtures generates randomized model values for tests.
package fixtures

import (
	"time"

	"doggodiary/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// Seed makes subsequent fixture output deterministic.
func Seed(seed int64) {
	gofakeit.Seed(seed)
}

// User builds a profile with the given role.
func User(role string) models.UserProfile {
	return models.UserProfile{
		UserID:       uint(gofakeit.Number(1, 100000)),
		Username:     gofakeit.Username(),
		Role:         models.Role{Role: role},
		AvatarURL:    gofakeit.URL(),
		CommentCount: gofakeit.Number(0, 50),
		LikeCount:    gofakeit.Number(0, 200),
	}
}

// Admin builds an admin profile.
func Admin() models.UserProfile {
	return User(models.RoleAdmin)
}

// Comment builds a comment authored by the given user.
func Comment(user models.UserProfile) models.Comment {
	return models.Comment{
		ID:        uint(gofakeit.Number(1, 100000)),
		Content:   gofakeit.Sentence(8),
		CreatedAt: gofakeit.DateRange(time.Now().AddDate(-1, 0, 0), time.Now()),
		User:      models.CommentUser{ID: user.UserID, Username: user.Username},
	}
}

// PageImage builds a page image with the given order.
func PageImage(order int) models.PageImage {
	return models.PageImage{
		ID:      uint(gofakeit.Number(1, 100000)),
		URL:     gofakeit.URL(),
		Caption: gofakeit.Sentence(4),
		AltText: gofakeit.Sentence(3),
		Order:   order,
	}
}

// Page builds a page with the given number and image count.
func Page(pageNum, imageCount int) models.Page {
	layout := models.LayoutHorizontalImage
	if pageNum == 1 {
		layout = models.LayoutTitlePage
	}
	images := make([]models.PageImage, 0, imageCount)
	for i := 0; i < imageCount; i++ {
		images = append(images, PageImage(i+1))
	}
	return models.Page{
		ID:       uint(gofakeit.Number(1, 100000)),
		PageNum:  pageNum,
		Subtitle: gofakeit.Sentence(4),
		Heading:  gofakeit.Sentence(3),
		Content:  gofakeit.Paragraph(1, 3, 12, " "),
		Layout:   layout,
		Images:   images,
	}
}

// Post builds a published post with the given page count.
func Post(pageCount int) models.Post {
	pages := make([]models.Page, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		pages = append(pages, Page(i+1, gofakeit.Number(0, 2)))
	}
	return models.Post{
		ID:        uint(gofakeit.Number(1, 100000)),
		Title:     gofakeit.Sentence(3),
		CreatedAt: gofakeit.DateRange(time.Now().AddDate(-2, 0, 0), time.Now()),
		Published: true,
		Thumbnail: models.Thumbnail{URL: gofakeit.URL(), AltText: gofakeit.Sentence(3)},
		Tags:      []models.Tag{{Name: gofakeit.Word()}, {Name: gofakeit.Word()}},
		Pages:     pages,
	}
}
