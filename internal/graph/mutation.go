package graph

import (
	"context"

	"goyfeed/internal/validation"

	graphql "github.com/graph-gophers/graphql-go"
)

func (r *Resolver) Signup(ctx context.Context, args struct {
	Username string
	Email    string
	Password string
	Name     *string
}) (*authPayloadResolver, error) {
	if _, err := beginMutation(ctx, false); err != nil {
		return nil, err
	}
	if err := r.rateLimit(ctx, "signup"); err != nil {
		return nil, err
	}
	in := validation.SignupInput{
		Username: args.Username,
		Email:    args.Email,
		Password: args.Password,
	}
	if args.Name != nil {
		in.Name = *args.Name
	}
	res, err := r.svc.Auth.Signup(ctx, in)
	if err != nil {
		return nil, fail(ctx, "signup", err)
	}
	return &authPayloadResolver{res: res}, nil
}

func (r *Resolver) Login(ctx context.Context, args struct {
	Email    string
	Password string
}) (*authPayloadResolver, error) {
	if _, err := beginMutation(ctx, false); err != nil {
		return nil, err
	}
	if err := r.rateLimit(ctx, "login"); err != nil {
		return nil, err
	}
	res, err := r.svc.Auth.Login(ctx, validation.LoginInput{Email: args.Email, Password: args.Password})
	if err != nil {
		return nil, fail(ctx, "login", err)
	}
	return &authPayloadResolver{res: res}, nil
}

func (r *Resolver) CreatePost(ctx context.Context, args struct {
	Content string
	Image   *string
}) (*postResolver, error) {
	viewerID, err := beginMutation(ctx, true)
	if err != nil {
		return nil, err
	}
	if err := r.rateLimit(ctx, "createPost"); err != nil {
		return nil, err
	}
	in := validation.CreatePostInput{Content: args.Content}
	if args.Image != nil {
		in.Image = *args.Image
	}
	post, err := r.svc.Posts.CreatePost(ctx, viewerID, in)
	if err != nil {
		return nil, fail(ctx, "createPost", err)
	}
	return &postResolver{root: r, p: post}, nil
}

func (r *Resolver) CreateComment(ctx context.Context, args struct {
	PostID  graphql.ID
	Content string
}) (*commentResolver, error) {
	viewerID, err := beginMutation(ctx, true)
	if err != nil {
		return nil, err
	}
	postID, err := parseID(args.PostID, "postId")
	if err != nil {
		return nil, err
	}
	if err := r.rateLimit(ctx, "createComment"); err != nil {
		return nil, err
	}
	comment, err := r.svc.Posts.CreateComment(ctx, viewerID, validation.CreateCommentInput{PostID: postID, Content: args.Content})
	if err != nil {
		return nil, fail(ctx, "createComment", err)
	}
	return &commentResolver{root: r, c: comment}, nil
}

type postIDArgs struct {
	PostID graphql.ID
}

func (r *Resolver) LikePost(ctx context.Context, args postIDArgs) (*likeResolver, error) {
	viewerID, postID, err := r.postMutation(ctx, args)
	if err != nil {
		return nil, err
	}
	like, err := r.svc.Posts.LikePost(ctx, viewerID, postID)
	if err != nil {
		return nil, fail(ctx, "likePost", err)
	}
	return &likeResolver{root: r, l: like}, nil
}

func (r *Resolver) UnlikePost(ctx context.Context, args postIDArgs) (bool, error) {
	viewerID, postID, err := r.postMutation(ctx, args)
	if err != nil {
		return false, err
	}
	if err := r.svc.Posts.UnlikePost(ctx, viewerID, postID); err != nil {
		return false, fail(ctx, "unlikePost", err)
	}
	return true, nil
}

func (r *Resolver) ToggleLike(ctx context.Context, args postIDArgs) (*toggleLikePayloadResolver, error) {
	viewerID, postID, err := r.postMutation(ctx, args)
	if err != nil {
		return nil, err
	}
	res, err := r.svc.Posts.ToggleLike(ctx, viewerID, postID)
	if err != nil {
		return nil, fail(ctx, "toggleLike", err)
	}
	return &toggleLikePayloadResolver{root: r, res: res}, nil
}

func (r *Resolver) postMutation(ctx context.Context, args postIDArgs) (uint, uint, error) {
	viewerID, err := beginMutation(ctx, true)
	if err != nil {
		return 0, 0, err
	}
	postID, err := parseID(args.PostID, "postId")
	if err != nil {
		return 0, 0, err
	}
	return viewerID, postID, nil
}

type userIDArgs struct {
	UserID graphql.ID
}

func (r *Resolver) userMutation(ctx context.Context, args userIDArgs) (uint, uint, error) {
	viewerID, err := beginMutation(ctx, true)
	if err != nil {
		return 0, 0, err
	}
	targetID, err := parseID(args.UserID, "userId")
	if err != nil {
		return 0, 0, err
	}
	return viewerID, targetID, nil
}

func (r *Resolver) Follow(ctx context.Context, args userIDArgs) (*followResolver, error) {
	viewerID, targetID, err := r.userMutation(ctx, args)
	if err != nil {
		return nil, err
	}
	follow, err := r.svc.Graph.Follow(ctx, viewerID, targetID)
	if err != nil {
		return nil, fail(ctx, "follow", err)
	}
	return &followResolver{root: r, f: follow}, nil
}

func (r *Resolver) Unfollow(ctx context.Context, args userIDArgs) (bool, error) {
	viewerID, targetID, err := r.userMutation(ctx, args)
	if err != nil {
		return false, err
	}
	if err := r.svc.Graph.Unfollow(ctx, viewerID, targetID); err != nil {
		return false, fail(ctx, "unfollow", err)
	}
	return true, nil
}

func (r *Resolver) FollowUser(ctx context.Context, args userIDArgs) (*followPayloadResolver, error) {
	if _, err := r.Follow(ctx, args); err != nil {
		return nil, err
	}
	return &followPayloadResolver{message: "User followed"}, nil
}

func (r *Resolver) UnfollowUser(ctx context.Context, args userIDArgs) (*followPayloadResolver, error) {
	if _, err := r.Unfollow(ctx, args); err != nil {
		return nil, err
	}
	return &followPayloadResolver{message: "User unfollowed"}, nil
}
