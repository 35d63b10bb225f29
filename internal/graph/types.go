package graph

import (
	"context"

	"goyfeed/internal/models"
	"goyfeed/internal/service"

	graphql "github.com/graph-gophers/graphql-go"
)

type userResolver struct {
	u *models.User
}

func (r *userResolver) ID() graphql.ID { return formatID(r.u.ID) }
func (r *userResolver) Username() string { return r.u.Username }
func (r *userResolver) Email() string { return r.u.Email }
func (r *userResolver) Name() *string { return optionalString(r.u.Name) }
func (r *userResolver) Avatar() *string { return optionalString(r.u.Avatar) }
func (r *userResolver) Bio() *string { return optionalString(r.u.Bio) }
func (r *userResolver) CreatedAt() string { return formatTime(r.u.CreatedAt) }
func (r *userResolver) UpdatedAt() string { return formatTime(r.u.UpdatedAt) }

func usersOf(users []models.User) []*userResolver {
	out := make([]*userResolver, len(users))
	for i := range users {
		out[i] = &userResolver{u: &users[i]}
	}
	return out
}

// suggestedUserResolver reports isFollowed as false: suggestions never
// include accounts the viewer follows.
type suggestedUserResolver struct {
	userResolver
}

func (r *suggestedUserResolver) IsFollowed() bool { return false }

type profileResolver struct {
	userResolver
	root *Resolver
	p    *service.Profile
}

func (r *profileResolver) FollowersCount() int32 { return int32(r.p.FollowersCount) }
func (r *profileResolver) FollowingCount() int32 { return int32(r.p.FollowingCount) }
func (r *profileResolver) Followers() []*userResolver {
	return usersOf(r.p.Followers)
}
func (r *profileResolver) Following() []*userResolver {
	return usersOf(r.p.Following)
}
func (r *profileResolver) Posts() []*postResolver {
	return r.root.postsOf(r.p.Posts)
}
func (r *profileResolver) IsFollowedByViewer() *bool {
	return r.p.IsFollowedByViewer
}

type postResolver struct {
	root *Resolver
	p    *models.Post
}

func (r *Resolver) postsOf(posts []*models.Post) []*postResolver {
	out := make([]*postResolver, len(posts))
	for i, p := range posts {
		out[i] = &postResolver{root: r, p: p}
	}
	return out
}

func (r *postResolver) ID() graphql.ID { return formatID(r.p.ID) }
func (r *postResolver) Content() string { return r.p.Content }
func (r *postResolver) Image() *string { return optionalString(r.p.Image) }
func (r *postResolver) CreatedAt() string { return formatTime(r.p.CreatedAt) }
func (r *postResolver) UpdatedAt() string { return formatTime(r.p.UpdatedAt) }
func (r *postResolver) IsLiked() bool { return r.p.Liked }
func (r *postResolver) LikeCount() int32 { return int32(r.p.LikesCount) }
func (r *postResolver) CommentCount() int32 { return int32(r.p.CommentsCount) }

func (r *postResolver) Author(ctx context.Context) (*userResolver, error) {
	if r.p.Author.ID != 0 {
		return &userResolver{u: &r.p.Author}, nil
	}
	return r.root.userByID(ctx, "Post.author", r.p.AuthorID)
}

func (r *postResolver) Comments(ctx context.Context) ([]*commentResolver, error) {
	comments, err := r.root.svc.Posts.Comments(ctx, r.p.ID)
	if err != nil {
		return nil, fail(ctx, "Post.comments", err)
	}
	out := make([]*commentResolver, len(comments))
	for i, c := range comments {
		out[i] = &commentResolver{root: r.root, c: c}
	}
	return out, nil
}

func (r *postResolver) Likes(ctx context.Context) ([]*likeResolver, error) {
	likes, err := r.root.svc.Posts.Likes(ctx, r.p.ID)
	if err != nil {
		return nil, fail(ctx, "Post.likes", err)
	}
	out := make([]*likeResolver, len(likes))
	for i, l := range likes {
		out[i] = &likeResolver{root: r.root, l: l}
	}
	return out, nil
}

type commentResolver struct {
	root *Resolver
	c    *models.Comment
}

func (r *commentResolver) ID() graphql.ID { return formatID(r.c.ID) }
func (r *commentResolver) Content() string { return r.c.Content }
func (r *commentResolver) CreatedAt() string { return formatTime(r.c.CreatedAt) }

func (r *commentResolver) Author(ctx context.Context) (*userResolver, error) {
	if r.c.Author.ID != 0 {
		return &userResolver{u: &r.c.Author}, nil
	}
	return r.root.userByID(ctx, "Comment.author", r.c.AuthorID)
}

func (r *commentResolver) Post(ctx context.Context) (*postResolver, error) {
	return r.root.postByID(ctx, "Comment.post", r.c.PostID)
}

type likeResolver struct {
	root *Resolver
	l    *models.Like
}

func (r *likeResolver) ID() graphql.ID { return formatID(r.l.ID) }
func (r *likeResolver) CreatedAt() string { return formatTime(r.l.CreatedAt) }

func (r *likeResolver) User(ctx context.Context) (*userResolver, error) {
	if r.l.User.ID != 0 {
		return &userResolver{u: &r.l.User}, nil
	}
	return r.root.userByID(ctx, "Like.user", r.l.UserID)
}

func (r *likeResolver) Post(ctx context.Context) (*postResolver, error) {
	return r.root.postByID(ctx, "Like.post", r.l.PostID)
}

type followResolver struct {
	root *Resolver
	f    *models.Follow
}

func (r *followResolver) ID() graphql.ID { return formatID(r.f.ID) }
func (r *followResolver) CreatedAt() string { return formatTime(r.f.CreatedAt) }

func (r *followResolver) Follower(ctx context.Context) (*userResolver, error) {
	return r.root.userByID(ctx, "Follow.follower", r.f.FollowerID)
}

func (r *followResolver) Following(ctx context.Context) (*userResolver, error) {
	return r.root.userByID(ctx, "Follow.following", r.f.FollowingID)
}

type authPayloadResolver struct {
	res *service.AuthResult
}

func (r *authPayloadResolver) Token() string { return r.res.Token }
func (r *authPayloadResolver) User() *userResolver { return &userResolver{u: r.res.User} }

type toggleLikePayloadResolver struct {
	root *Resolver
	res  *service.ToggleLikeResult
}

func (r *toggleLikePayloadResolver) Success() bool { return true }
func (r *toggleLikePayloadResolver) Message() string {
	if r.res.IsLiked {
		return "Post liked"
	}
	return "Post unliked"
}
func (r *toggleLikePayloadResolver) IsLiked() bool { return r.res.IsLiked }
func (r *toggleLikePayloadResolver) LikeCount() int32 { return int32(r.res.LikeCount) }
func (r *toggleLikePayloadResolver) Post() *postResolver {
	if r.res.Post == nil {
		return nil
	}
	return &postResolver{root: r.root, p: r.res.Post}
}

type followPayloadResolver struct {
	message string
}

func (r *followPayloadResolver) Success() bool { return true }
func (r *followPayloadResolver) Message() string { return r.message }

func (r *Resolver) userByID(ctx context.Context, op string, id uint) (*userResolver, error) {
	user, err := r.svc.Users.GetByID(ctx, id)
	if err != nil {
		return nil, fail(ctx, op, err)
	}
	return &userResolver{u: user}, nil
}

func (r *Resolver) postByID(ctx context.Context, op string, id uint) (*postResolver, error) {
	post, err := r.svc.Posts.GetPost(ctx, id, optionalViewer(ctx))
	if err != nil {
		return nil, fail(ctx, op, err)
	}
	return &postResolver{root: r, p: post}, nil
}
