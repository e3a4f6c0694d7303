package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/listenroom/backend/internal/v1/youtube"
)

type resolveResponse struct {
	YoutubeId string `json:"youtubeId"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// ResolveYoutube handles GET /api/youtube/resolve?url=...
func ResolveYoutube(resolver youtube.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawUrl := c.Query("url")
		if rawUrl == "" {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "url query param required"})
			return
		}

		videoId, err := resolver.ExtractID(rawUrl)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid YouTube URL"})
			return
		}

		meta := resolver.FetchMetadata(context.Background(), videoId)
		c.JSON(http.StatusOK, resolveResponse{
			YoutubeId: meta.YoutubeId,
			Title:     meta.Title,
			Thumbnail: meta.Thumbnail,
		})
	}
}
