package graph

// Schema is the GraphQL SDL served at /graphql.
const Schema = `
schema {
	query: Query
	mutation: Mutation
}

type User {
	id: ID!
	username: String!
	email: String!
	name: String
	avatar: String
	bio: String
	createdAt: String!
	updatedAt: String!
}

type SuggestedUser {
	id: ID!
	username: String!
	email: String!
	name: String
	avatar: String
	bio: String
	createdAt: String!
	updatedAt: String!
	isFollowed: Boolean!
}

type UserProfile {
	id: ID!
	username: String!
	email: String!
	name: String
	avatar: String
	bio: String
	createdAt: String!
	updatedAt: String!
	followersCount: Int!
	followingCount: Int!
	followers: [User!]!
	following: [User!]!
	posts: [Post!]!
	isFollowedByViewer: Boolean
}

type Post {
	id: ID!
	content: String!
	image: String
	createdAt: String!
	updatedAt: String!
	author: User!
	isLiked: Boolean!
	likeCount: Int!
	commentCount: Int!
	comments: [Comment!]!
	likes: [Like!]!
}

type Comment {
	id: ID!
	content: String!
	createdAt: String!
	author: User!
	post: Post!
}

type Like {
	id: ID!
	createdAt: String!
	user: User!
	post: Post!
}

type Follow {
	id: ID!
	createdAt: String!
	follower: User!
	following: User!
}

type AuthPayload {
	token: String!
	user: User!
}

type ToggleLikePayload {
	success: Boolean!
	message: String!
	isLiked: Boolean!
	likeCount: Int!
	post: Post
}

type FollowPayload {
	success: Boolean!
	message: String!
}

type Query {
	me: User
	getAllUsers: [User!]!
	getSuggestedUsers(limit: Int): [SuggestedUser!]!
	getUser(username: String!): UserProfile
	getPosts(limit: Int, offset: Int): [Post!]!
	getPost(id: ID!): Post
	getPopularPosts(limit: Int): [Post!]!
	getPostsByAuthor(id: ID!): [Post!]!
	getFeed(limit: Int, offset: Int): [Post!]!
}

type Mutation {
	signup(username: String!, email: String!, password: String!, name: String): AuthPayload!
	login(email: String!, password: String!): AuthPayload!
	createPost(content: String!, image: String): Post!
	createComment(postId: ID!, content: String!): Comment!
	likePost(postId: ID!): Like!
	unlikePost(postId: ID!): Boolean!
	toggleLike(postId: ID!): ToggleLikePayload!
	follow(userId: ID!): Follow!
	unfollow(userId: ID!): Boolean!
	followUser(userId: ID!): FollowPayload!
	unfollowUser(userId: ID!): FollowPayload!
}
`
