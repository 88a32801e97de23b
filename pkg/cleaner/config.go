// Package cleaner reduces newsletter-style email HTML to article content.
// It applies an ordered list of heuristic rules to a parsed document:
// footnote consolidation, title dedup, boilerplate removal, tracking-pixel
// and empty-element pruning. The rules are tuned for a narrow class of
// newsletter emails; false positives and negatives are tolerated.
package cleaner

// Config carries the rule data for the cleaner. All rule inputs (marker
// phrases, class names, action words, length caps) live here so rules can
// be extended without touching the engine.
type Config struct {
	// BoilerplateClasses are class names whose elements are removed
	// outright. Mostly newsletter-platform widgets.
	BoilerplateClasses []string `yaml:"boilerplate_classes"`

	// ActionWords remove elements whose entire trimmed text equals one of
	// these (case-insensitive).
	ActionWords []string `yaml:"action_words"`

	// AdMarkers remove elements containing one of these phrases, subject
	// to AdTextCap.
	AdMarkers []string `yaml:"ad_markers"`

	// ExactAdMarkers remove elements whose entire text equals one of
	// these, regardless of length cap.
	ExactAdMarkers []string `yaml:"exact_ad_markers"`

	// FooterPhrases remove elements containing one of these
	// footer/unsubscribe/legal phrases, subject to FooterTextCap.
	FooterPhrases []string `yaml:"footer_phrases"`

	// Length caps keep the contains-style rules from deleting an ancestor
	// that also wraps real content.
	ForwardedTextCap int `yaml:"forwarded_text_cap"`
	DateTextCap      int `yaml:"date_text_cap"`
	AdTextCap        int `yaml:"ad_text_cap"`
	FooterTextCap    int `yaml:"footer_text_cap"`
	SignatureTextCap int `yaml:"signature_text_cap"`
	ReadInAppCap     int `yaml:"read_in_app_cap"`

	// AuthorTolerance is how many characters beyond the author name an
	// element's text may run and still count as a standalone byline.
	AuthorTolerance int `yaml:"author_tolerance"`

	// TinyImageMax: images with an explicit width or height at or below
	// this are treated as tracking pixels or icons.
	TinyImageMax int `yaml:"tiny_image_max"`
}

// DefaultConfig returns the rule set tuned for Substack-style newsletters.
func DefaultConfig() *Config {
	return &Config{
		BoilerplateClasses: []string{
			"subscription-widget-wrap",
			"post-footer",
			"footer",
			"comments-section",
			"share-dialog",
			"subscribe-footer",
			"simple-text-box", // often wraps 'Share' buttons
			"preview",         // hidden email preview text
			"email-ufi-2-bottom",
			"email-ufi-2-top",
			"post-meta",
			"email-button-outline",
			"email-button-text",
			"email-icon-button",
		},
		ActionWords: []string{
			"share",
			"comment",
			"subscribe",
			"unsubscribe",
			"update your preferences",
			"view in browser",
		},
		AdMarkers: []string{
			"sponsored by",
			"presented by",
			"a message from our sponsor",
			"paid advertisement",
		},
		ExactAdMarkers: []string{
			"advertisement",
			"sponsored",
		},
		FooterPhrases: []string{
			"unsubscribe",
			"update your preferences",
			"view this email in your browser",
			"you are receiving this email",
			"manage your subscription",
			"all rights reserved",
			"privacy policy",
			"was forwarded to you",
		},
		ForwardedTextCap: 300,
		DateTextCap:      25,
		AdTextCap:        200,
		FooterTextCap:    300,
		SignatureTextCap: 200,
		ReadInAppCap:     20,
		AuthorTolerance:  50,
		TinyImageMax:     50,
	}
}
