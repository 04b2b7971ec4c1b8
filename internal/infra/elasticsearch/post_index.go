package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"chirp-go/internal/model"
	"chirp-go/pkg/logger"

	"go.uber.org/zap"
)

// ESPostDoc ES 帖子文档结构
type ESPostDoc struct {
	ID         int64  `json:"id"`
	AuthorID   int64  `json:"author_id"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
	CreatedAt  string `json:"created_at"`
}

func postToESDoc(p *model.Post) *ESPostDoc {
	return &ESPostDoc{
		ID:         p.ID,
		AuthorID:   p.AuthorID,
		AuthorName: p.Author.Username,
		Content:    p.Content,
		CreatedAt:  p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// PostIndex 基于 Elasticsearch 的帖子索引
type PostIndex struct {
	index string
}

func NewPostIndex(index string) *PostIndex {
	return &PostIndex{index: index}
}

// SearchPostIDs 执行查询并按命中顺序返回帖子 ID
func (p *PostIndex) SearchPostIDs(ctx context.Context, query map[string]interface{}) ([]int64, error) {
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	resp, err := Search(ctx, p.index, bytes.NewReader(queryJSON))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, fmt.Errorf("ES search error: %s", resp.String())
	}
	return decodeHitIDs(resp.Body)
}

func decodeHitIDs(body io.Reader) ([]int64, error) {
	var esResp struct {
		Hits struct {
			Hits []struct {
				Source struct {
					ID int64 `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(body).Decode(&esResp); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(esResp.Hits.Hits))
	for _, h := range esResp.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return ids, nil
}

// IndexPost 同步单个帖子到 ES
func (p *PostIndex) IndexPost(ctx context.Context, post *model.Post) error {
	body, err := json.Marshal(postToESDoc(post))
	if err != nil {
		return err
	}

	resp, err := Index(ctx, p.index, strconv.FormatInt(post.ID, 10), bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return fmt.Errorf("index document failed: %s", resp.String())
	}

	logger.Debug("Post synced to ES", zap.Int64("post_id", post.ID))
	return nil
}

// buildBulkBody 生成 bulk index 请求体（NDJSON）
func buildBulkBody(index string, posts []model.Post) (string, error) {
	var buf strings.Builder
	for i := range posts {
		docBody, err := json.Marshal(postToESDoc(&posts[i]))
		if err != nil {
			return "", err
		}
		buf.WriteString(fmt.Sprintf(`{"index":{"_index":"%s","_id":"%d"}}`, index, posts[i].ID))
		buf.WriteString("\n")
		buf.Write(docBody)
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

// BulkIndexPosts 批量同步帖子到 ES
func (p *PostIndex) BulkIndexPosts(ctx context.Context, posts []model.Post) (success, failed int, err error) {
	body, err := buildBulkBody(p.index, posts)
	if err != nil {
		return 0, len(posts), err
	}
	if body == "" {
		return 0, 0, nil
	}

	resp, err := Bulk(ctx, strings.NewReader(body))
	if err != nil {
		return 0, len(posts), err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return 0, len(posts), fmt.Errorf("bulk failed: %s", resp.String())
	}

	var bulkResp struct {
		Items []struct {
			Index struct {
				Status int `json:"status"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&bulkResp); err != nil {
		return 0, len(posts), fmt.Errorf("decode bulk response: %w", err)
	}

	for _, item := range bulkResp.Items {
		if item.Index.Status >= 200 && item.Index.Status < 300 {
			success++
		} else {
			failed++
		}
	}

	logger.Info("Bulk sync to ES completed", zap.Int("success", success), zap.Int("failed", failed))
	return success, failed, nil
}
