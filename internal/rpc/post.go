package rpc

import (
	"context"
	"encoding/json"

	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/upload"
	"google.golang.org/grpc"
)

// Service names.
const (
	PostService  = "quill.v1.PostService"
	DraftService = "quill.v1.DraftService"
	FileService  = "quill.v1.FileService"
)

type PostRequest struct {
	Post *domain.Post `json:"post"`
}

// PostResponse carries a post. Post is nil when a lookup found nothing.
type PostResponse struct {
	Post *domain.Post `json:"post"`
}

type ListPostsRequest struct {
	ChannelID string `json:"channel_id"`
	Before    int64  `json:"before,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type ListPostsResponse struct {
	Posts []*domain.Post `json:"posts"`
}

type LatestPostRequest struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id,omitempty"`
}

type EditPostRequest struct {
	PostID  string `json:"post_id"`
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type ReactRequest struct {
	Reaction domain.Reaction `json:"reaction"`
	Add      bool            `json:"add"`
}

type PostIDRequest struct {
	PostID string `json:"post_id"`
}

type ReactionsResponse struct {
	Reactions []domain.Reaction `json:"reactions"`
}

type SearchRequest struct {
	Query     string `json:"query"`
	ChannelID string `json:"channel_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type SearchHit struct {
	Post    domain.Post `json:"post"`
	Snippet string      `json:"snippet"`
}

type SearchResponse struct {
	Hits []SearchHit `json:"hits"`
}

// WatchRequest selects bus events by kind prefix. No prefixes selects all.
type WatchRequest struct {
	Prefixes []string `json:"prefixes,omitempty"`
}

// Event is a daemon bus event as seen by clients.
type Event struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	OccurredAt int64           `json:"occurred_at"`
	ChannelID  string          `json:"channel_id,omitempty"`
	PostID     string          `json:"post_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// PostServer is the server API for PostService.
type PostServer interface {
	Create(context.Context, *PostRequest) (*PostResponse, error)
	Get(context.Context, *PostIDRequest) (*PostResponse, error)
	List(context.Context, *ListPostsRequest) (*ListPostsResponse, error)
	LatestRepliable(context.Context, *LatestPostRequest) (*PostResponse, error)
	LatestOwn(context.Context, *LatestPostRequest) (*PostResponse, error)
	Edit(context.Context, *EditPostRequest) (*PostResponse, error)
	React(context.Context, *ReactRequest) (*Empty, error)
	Reactions(context.Context, *PostIDRequest) (*ReactionsResponse, error)
	Search(context.Context, *SearchRequest) (*SearchResponse, error)
	Watch(*WatchRequest, grpc.ServerStreamingServer[Event]) error
}

// PostServiceDesc describes PostService.
var PostServiceDesc = grpc.ServiceDesc{
	ServiceName: PostService,
	HandlerType: (*PostServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(PostService, "Create", PostServer.Create),
		unary(PostService, "Get", PostServer.Get),
		unary(PostService, "List", PostServer.List),
		unary(PostService, "LatestRepliable", PostServer.LatestRepliable),
		unary(PostService, "LatestOwn", PostServer.LatestOwn),
		unary(PostService, "Edit", PostServer.Edit),
		unary(PostService, "React", PostServer.React),
		unary(PostService, "Reactions", PostServer.Reactions),
		unary(PostService, "Search", PostServer.Search),
	},
	Streams: []grpc.StreamDesc{
		serverStream("Watch", PostServer.Watch),
	},
	Metadata: "quill/v1/post",
}

// RegisterPostServer registers srv on s.
func RegisterPostServer(s grpc.ServiceRegistrar, srv PostServer) {
	s.RegisterService(&PostServiceDesc, srv)
}

// PostClient is the client API for PostService.
type PostClient struct {
	cc grpc.ClientConnInterface
}

func NewPostClient(cc grpc.ClientConnInterface) *PostClient {
	return &PostClient{cc: cc}
}

// CreatePost queues p for delivery and returns the stored pending post.
func (c *PostClient) CreatePost(ctx context.Context, p *domain.Post) (*domain.Post, error) {
	return c.post(ctx, "Create", &PostRequest{Post: p})
}

// GetPost returns a post by ID.
func (c *PostClient) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	return c.post(ctx, "Get", &PostIDRequest{PostID: postID})
}

func (c *PostClient) ListPosts(ctx context.Context, channelID string, before int64, limit int) ([]*domain.Post, error) {
	resp, err := invoke[ListPostsResponse](ctx, c.cc, fullMethod(PostService, "List"),
		&ListPostsRequest{ChannelID: channelID, Before: before, Limit: limit})
	if err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

func (c *PostClient) LatestRepliablePost(ctx context.Context, channelID string) (*domain.Post, error) {
	return c.post(ctx, "LatestRepliable", &LatestPostRequest{ChannelID: channelID})
}

func (c *PostClient) LatestOwnPost(ctx context.Context, channelID, userID string) (*domain.Post, error) {
	return c.post(ctx, "LatestOwn", &LatestPostRequest{ChannelID: channelID, UserID: userID})
}

func (c *PostClient) EditPost(ctx context.Context, postID, userID, message string) (*domain.Post, error) {
	return c.post(ctx, "Edit", &EditPostRequest{PostID: postID, UserID: userID, Message: message})
}

func (c *PostClient) AddReaction(ctx context.Context, r domain.Reaction) error {
	_, err := invoke[Empty](ctx, c.cc, fullMethod(PostService, "React"), &ReactRequest{Reaction: r, Add: true})
	return err
}

func (c *PostClient) RemoveReaction(ctx context.Context, r domain.Reaction) error {
	_, err := invoke[Empty](ctx, c.cc, fullMethod(PostService, "React"), &ReactRequest{Reaction: r})
	return err
}

func (c *PostClient) Reactions(ctx context.Context, postID string) ([]domain.Reaction, error) {
	resp, err := invoke[ReactionsResponse](ctx, c.cc, fullMethod(PostService, "Reactions"), &PostIDRequest{PostID: postID})
	if err != nil {
		return nil, err
	}
	return resp.Reactions, nil
}

func (c *PostClient) Search(ctx context.Context, req *SearchRequest) ([]SearchHit, error) {
	resp, err := invoke[SearchResponse](ctx, c.cc, fullMethod(PostService, "Search"), req)
	if err != nil {
		return nil, err
	}
	return resp.Hits, nil
}

// Watch streams daemon events matching prefixes until ctx is done.
func (c *PostClient) Watch(ctx context.Context, prefixes ...string) (grpc.ServerStreamingClient[Event], error) {
	return openStream[WatchRequest, Event](ctx, c.cc, &PostServiceDesc.Streams[0], fullMethod(PostService, "Watch"),
		&WatchRequest{Prefixes: prefixes})
}

func (c *PostClient) post(ctx context.Context, method string, in any) (*domain.Post, error) {
	resp, err := invoke[PostResponse](ctx, c.cc, fullMethod(PostService, method), in)
	if err != nil {
		return nil, err
	}
	return resp.Post, nil
}

type DraftRequest struct {
	Key   string        `json:"key"`
	Draft *domain.Draft `json:"draft,omitempty"`
}

// DraftResponse carries a draft, nil when none is stored.
type DraftResponse struct {
	Draft *domain.Draft `json:"draft"`
}

type ListDraftsResponse struct {
	Drafts []*domain.Draft `json:"drafts"`
}

// DraftServer is the server API for DraftService.
type DraftServer interface {
	Get(context.Context, *DraftRequest) (*DraftResponse, error)
	Set(context.Context, *DraftRequest) (*Empty, error)
	List(context.Context, *Empty) (*ListDraftsResponse, error)
}

// DraftServiceDesc describes DraftService.
var DraftServiceDesc = grpc.ServiceDesc{
	ServiceName: DraftService,
	HandlerType: (*DraftServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(DraftService, "Get", DraftServer.Get),
		unary(DraftService, "Set", DraftServer.Set),
		unary(DraftService, "List", DraftServer.List),
	},
	Metadata: "quill/v1/draft",
}

// RegisterDraftServer registers srv on s.
func RegisterDraftServer(s grpc.ServiceRegistrar, srv DraftServer) {
	s.RegisterService(&DraftServiceDesc, srv)
}

// DraftClient is the client API for DraftService.
type DraftClient struct {
	cc grpc.ClientConnInterface
}

func NewDraftClient(cc grpc.ClientConnInterface) *DraftClient {
	return &DraftClient{cc: cc}
}

// GetDraft returns the stored draft under key, or nil.
func (c *DraftClient) GetDraft(ctx context.Context, key string) (*domain.Draft, error) {
	resp, err := invoke[DraftResponse](ctx, c.cc, fullMethod(DraftService, "Get"), &DraftRequest{Key: key})
	if err != nil {
		return nil, err
	}
	return resp.Draft, nil
}

// SetDraft stores d under key. A nil draft deletes it.
func (c *DraftClient) SetDraft(ctx context.Context, key string, d *domain.Draft) error {
	_, err := invoke[Empty](ctx, c.cc, fullMethod(DraftService, "Set"), &DraftRequest{Key: key, Draft: d})
	return err
}

func (c *DraftClient) ListDrafts(ctx context.Context) ([]*domain.Draft, error) {
	resp, err := invoke[ListDraftsResponse](ctx, c.cc, fullMethod(DraftService, "List"), &Empty{})
	if err != nil {
		return nil, err
	}
	return resp.Drafts, nil
}

type FileResponse struct {
	File *domain.FileInfo `json:"file"`
}

type DeleteFileRequest struct {
	FileID string `json:"file_id"`
}

// FileServer is the server API for FileService.
type FileServer interface {
	Upload(context.Context, *upload.Request) (*FileResponse, error)
	Delete(context.Context, *DeleteFileRequest) (*Empty, error)
}

// FileServiceDesc describes FileService.
var FileServiceDesc = grpc.ServiceDesc{
	ServiceName: FileService,
	HandlerType: (*FileServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(FileService, "Upload", FileServer.Upload),
		unary(FileService, "Delete", FileServer.Delete),
	},
	Metadata: "quill/v1/file",
}

// RegisterFileServer registers srv on s.
func RegisterFileServer(s grpc.ServiceRegistrar, srv FileServer) {
	s.RegisterService(&FileServiceDesc, srv)
}

// FileClient is the client API for FileService. It implements
// upload.Uploader.
type FileClient struct {
	cc   grpc.ClientConnInterface
	opts []grpc.CallOption
}

// NewFileClient returns a file client. maxSize raises the send limit so
// files up to that size fit in one message.
func NewFileClient(cc grpc.ClientConnInterface, maxSize int64) *FileClient {
	c := &FileClient{cc: cc}
	if maxSize > 0 {
		c.opts = append(c.opts, grpc.MaxCallSendMsgSize(MessageLimit(maxSize)))
	}
	return c
}

func (c *FileClient) UploadFile(ctx context.Context, req *upload.Request) (*domain.FileInfo, error) {
	resp, err := invoke[FileResponse](ctx, c.cc, fullMethod(FileService, "Upload"), req, c.opts...)
	if err != nil {
		return nil, err
	}
	return resp.File, nil
}

func (c *FileClient) DeleteFile(ctx context.Context, fileID string) error {
	_, err := invoke[Empty](ctx, c.cc, fullMethod(FileService, "Delete"), &DeleteFileRequest{FileID: fileID})
	return err
}

// MessageLimit is the gRPC message size needed to carry a file of
// maxFileSize bytes. JSON encodes bytes as base64.
func MessageLimit(maxFileSize int64) int {
	return int(maxFileSize/3*4) + 64<<10
}
