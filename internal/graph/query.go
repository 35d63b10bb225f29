package graph

import (
	"context"

	"goyfeed/internal/validation"

	graphql "github.com/graph-gophers/graphql-go"
)

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	user, err := r.svc.Users.Me(ctx, optionalViewer(ctx))
	if err != nil {
		return nil, fail(ctx, "me", err)
	}
	if user == nil {
		return nil, nil
	}
	return &userResolver{u: user}, nil
}

func (r *Resolver) GetAllUsers(ctx context.Context) ([]*userResolver, error) {
	users, err := r.svc.Users.List(ctx)
	if err != nil {
		return nil, fail(ctx, "getAllUsers", err)
	}
	return usersOf(users), nil
}

func (r *Resolver) GetSuggestedUsers(ctx context.Context, args struct{ Limit *int32 }) ([]*suggestedUserResolver, error) {
	viewerID, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	users, err := r.svc.Graph.Suggested(ctx, viewerID, intArg(args.Limit))
	if err != nil {
		return nil, fail(ctx, "getSuggestedUsers", err)
	}
	out := make([]*suggestedUserResolver, len(users))
	for i := range users {
		out[i] = &suggestedUserResolver{userResolver{u: &users[i]}}
	}
	return out, nil
}

func (r *Resolver) GetUser(ctx context.Context, args struct{ Username string }) (*profileResolver, error) {
	profile, err := r.svc.Profiles.GetProfile(ctx, args.Username, optionalViewer(ctx))
	if err != nil {
		return nil, fail(ctx, "getUser", err)
	}
	return &profileResolver{userResolver: userResolver{u: profile.User}, root: r, p: profile}, nil
}

type pageArgs struct {
	Limit  *int32
	Offset *int32
}

func (a pageArgs) input() validation.PageInput {
	return validation.PageInput{Limit: intArg(a.Limit), Offset: intArg(a.Offset)}
}

func (r *Resolver) GetPosts(ctx context.Context, args pageArgs) ([]*postResolver, error) {
	posts, err := r.svc.Posts.ListPosts(ctx, args.input(), optionalViewer(ctx))
	if err != nil {
		return nil, fail(ctx, "getPosts", err)
	}
	return r.postsOf(posts), nil
}

func (r *Resolver) GetPost(ctx context.Context, args struct{ ID graphql.ID }) (*postResolver, error) {
	id, err := parseID(args.ID, "id")
	if err != nil {
		return nil, err
	}
	return r.postByID(ctx, "getPost", id)
}

func (r *Resolver) GetPopularPosts(ctx context.Context, args struct{ Limit *int32 }) ([]*postResolver, error) {
	posts, err := r.svc.Posts.Popular(ctx, intArg(args.Limit), optionalViewer(ctx))
	if err != nil {
		return nil, fail(ctx, "getPopularPosts", err)
	}
	return r.postsOf(posts), nil
}

func (r *Resolver) GetPostsByAuthor(ctx context.Context, args struct{ ID graphql.ID }) ([]*postResolver, error) {
	authorID, err := parseID(args.ID, "id")
	if err != nil {
		return nil, err
	}
	posts, err := r.svc.Posts.ListByAuthor(ctx, authorID, optionalViewer(ctx))
	if err != nil {
		return nil, fail(ctx, "getPostsByAuthor", err)
	}
	return r.postsOf(posts), nil
}

func (r *Resolver) GetFeed(ctx context.Context, args pageArgs) ([]*postResolver, error) {
	viewerID, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := r.svc.Posts.Feed(ctx, viewerID, args.input())
	if err != nil {
		return nil, fail(ctx, "getFeed", err)
	}
	return r.postsOf(posts), nil
}
