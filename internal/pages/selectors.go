package pages

// Conduit markup
const (
	selContainer = ".container"

	// login
	selEmailInput    = "input[placeholder='Email']"
	selPasswordInput = "input[placeholder='Password']"
	selSubmitButton  = "button[type='submit']"
	selErrorMessages = ".error-messages"

	// home
	selPopularTags    = ".sidebar .tag-list"
	selTagPills       = ".sidebar .tag-list .tag-pill"
	selArticlePreview = ".article-preview"
	selPreviewTitle   = "h1"
	selPreviewLinkH1  = ".preview-link h1"
	selActiveTab      = ".nav-link.active"
	selUserMenuLink   = ".nav-link[href^='#/@']"
	selEditorLink     = "a[href*='editor']"
	selNavLink        = ".nav-link"
	selAnyLink        = "a"

	// article
	selArticleTitle    = ".banner h1"
	selArticleBody     = ".article-content"
	selArticleTags     = ".tag-list .tag-pill"
	selEditButton      = "a.btn-outline-secondary"
	selDeleteButton    = "button.btn-outline-danger"
	selFavoriteButton  = ".article-meta button.btn-primary, .article-meta button.btn-outline-primary"
	selFollowButton    = ".article-meta button.btn-sm.btn-outline-secondary, .article-meta button.btn-sm.btn-secondary"
	selCommentTextarea = "textarea[placeholder='Write a comment...']"
	selPostComment     = "button[type='submit'].btn-primary"
	selCommentCard     = ".comment-card"
	selCommentText     = ".comment-text, .card-text"
	selDeleteComment   = ".mod-options .ion-trash-a"

	// editor
	selTitleInput       = "input[placeholder='Article Title']"
	selDescriptionInput = `input[placeholder="What's this article about?"]`
	selBodyTextarea     = "textarea[placeholder='Write your article (in markdown)']"
	selTagsInput        = "input[placeholder='Enter tags']"
)
