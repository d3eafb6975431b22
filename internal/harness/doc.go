// Package harness runs relationship scenarios against the parser and the
// tree builder.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: blog_posts
//	description: "Posts of a user come with their author"
//	entities:
//	  - { name: User, table: users }
//	  - { name: Post, table: posts }
//	dsl: |
//	  User.posts[] -> Post
//	  Post.author -> User
//	mandatory: ["Post.author"]
//	root: User
//	populate: "posts"
//	filters:
//	  - entity: Post
//	    where: { published: true }
//	assertions:
//	  - type: paths
//	    paths: [posts, posts.author]
//	  - type: where
//	    path: posts
//	    expect: { published: true }
//
// The DSL can live in a separate file (dsl_file), resolved relative to the
// scenario. An initial tree can be given under initial, in the same shape
// as `relgraph populate --initial`.
//
// Every filter step runs as its own filter pass, in order, so later steps
// see the conditions produced by earlier ones.
//
// # Assertion Types
//
//   - paths: the populated tree has exactly these include paths, in order
//   - has_path / no_path: a single include path is present / absent
//   - where: the condition at path ("" is the root) equals expect
//   - required: the node at path has the given required flag
//   - registered: the catalog holds exactly these Source.alias pairs
//   - parse_error: parsing fails, optionally at line and containing text
//
// # Deterministic Testing
//
// Each scenario runs against a fresh in-memory catalog. The parser and
// builder are deterministic, so the final tree can be snapshotted with
// RunWithGolden and compared as canonical JSON.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/blog.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
