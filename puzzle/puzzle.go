// Package puzzle implements the reconstruction game: a secret filter
// combination is applied to a source image, and the player rebuilds it in
// their own pipeline while a similarity score tracks how close they are.
package puzzle

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/nvr-ai/filterbox/filters"
	"github.com/nvr-ai/filterbox/images"
	"github.com/nvr-ai/filterbox/logging"
	"github.com/nvr-ai/filterbox/similarity"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultMaxSecretFilters bounds the size of a secret combination.
const DefaultMaxSecretFilters = 3

// ErrNoImages is returned when the game has no source images to pick from.
var ErrNoImages = errors.New("no puzzle images")

// Lister is implemented by loaders that can enumerate their images.
type Lister interface {
	IDs() []string
}

// Options configures a Game. Zero values select defaults.
type Options struct {
	// Images are the loader identifiers to pick from. When empty and the
	// loader is a Lister, its identifiers are used.
	Images []string
	// MaxSecretFilters bounds the secret combination size (default 3).
	MaxSecretFilters int
	// Slots is the player's pipeline capacity (default filters.DefaultSlots).
	Slots int
	// Tolerance is passed to the scorer.
	Tolerance int
	// Catalog supplies the filters (default filters.DefaultCatalog()).
	Catalog *filters.Catalog
	// Rand drives image and filter selection. Nil seeds from the clock.
	Rand *rand.Rand
	// Logger receives game events. Nil discards.
	Logger logrus.FieldLogger
}

// Game is one puzzle session. It is not safe for concurrent use.
type Game struct {
	loader  images.Loader
	images  []string
	max     int
	scoring similarity.Options
	catalog *filters.Catalog
	rng     *rand.Rand
	logger  logrus.FieldLogger

	image  string
	secret filters.Preset
	user   *filters.Pipeline
}

// New creates a game and starts its first puzzle.
//
// Arguments:
//   - loader: Produces source images by identifier.
//   - opts: The game options.
//
// Returns:
//   - *Game: The game, with a secret chosen and an empty player pipeline.
//   - error: ErrNoImages when there is nothing to pick from.
func New(loader images.Loader, opts Options) (*Game, error) {
	ids := append([]string(nil), opts.Images...)
	if len(ids) == 0 {
		if l, ok := loader.(Lister); ok {
			ids = l.IDs()
			sort.Strings(ids)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoImages
	}

	if opts.Catalog == nil {
		opts.Catalog = filters.DefaultCatalog()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	limit := opts.MaxSecretFilters
	if limit < 1 {
		limit = DefaultMaxSecretFilters
	}
	if n := len(opts.Catalog.IDs()); limit > n {
		limit = n
	}

	g := &Game{
		loader:  loader,
		images:  ids,
		max:     limit,
		scoring: similarity.Options{Tolerance: opts.Tolerance},
		catalog: opts.Catalog,
		rng:     opts.Rand,
		logger:  opts.Logger,
		user:    filters.NewPipeline(opts.Catalog, opts.Slots, opts.Logger),
	}
	g.NewPuzzle()
	return g, nil
}

// NewPuzzle clears the player's slots, picks a random image and chooses a
// fresh secret of 1 to MaxSecretFilters distinct filters at their defaults.
func (g *Game) NewPuzzle() {
	g.user.Clear()
	g.image = g.pickImage()

	ids := g.catalog.IDs()
	g.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	n := 1 + g.rng.Intn(g.max)

	g.secret = make(filters.Preset, 0, n)
	for _, id := range ids[:n] {
		def, err := g.catalog.Lookup(id)
		if err != nil {
			continue
		}
		g.secret = append(g.secret, def.DefaultConfig())
	}

	g.logger.WithFields(logrus.Fields{
		"image":   g.image,
		"filters": len(g.secret),
	}).Info("new puzzle")
}

// NewImage keeps the secret and the player's pipeline but switches to a
// random source image.
func (g *Game) NewImage() {
	g.image = g.pickImage()
	g.logger.WithField("image", g.image).Info("new puzzle image")
}

func (g *Game) pickImage() string {
	return g.images[g.rng.Intn(len(g.images))]
}

// Image returns the current source image identifier.
func (g *Game) Image() string {
	return g.image
}

// Secret returns a copy of the secret combination.
func (g *Game) Secret() filters.Preset {
	secret := make(filters.Preset, len(g.secret))
	for i, cfg := range g.secret {
		secret[i] = cfg.Clone()
	}
	return secret
}

// Pipeline returns the player's pipeline. Edits take effect on the next
// Result or Score.
func (g *Game) Pipeline() *filters.Pipeline {
	return g.user
}

// Input loads the current source image at its natural size.
func (g *Game) Input(ctx context.Context) (*images.Image, error) {
	img, err := g.loader.Load(ctx, g.image)
	if err != nil {
		return nil, errors.Wrapf(err, "load puzzle image %q", g.image)
	}
	return img, nil
}

// Target renders the secret combination over the source image scaled to
// width x height. Zero dimensions keep the natural size. Each call starts
// from a fresh copy of the secret, so repeated targets are identical.
func (g *Game) Target(ctx context.Context, width, height int) (*images.Image, error) {
	var (
		img *images.Image
		err error
	)
	if width > 0 && height > 0 {
		img, err = g.loader.LoadResized(ctx, g.image, width, height)
		if err != nil {
			return nil, errors.Wrapf(err, "load puzzle image %q at %dx%d", g.image, width, height)
		}
	} else if img, err = g.Input(ctx); err != nil {
		return nil, err
	}

	secret := filters.NewPipeline(g.catalog, len(g.secret), g.logger)
	if err := secret.Load(g.secret); err != nil {
		return nil, err
	}
	secret.Apply(img)
	return img, nil
}

// Result renders the player's pipeline over the source image.
func (g *Game) Result(ctx context.Context) (*images.Image, error) {
	img, err := g.Input(ctx)
	if err != nil {
		return nil, err
	}
	g.user.Apply(img)
	return img, nil
}

// Score compares the player's result against a target generated at the
// result's exact dimensions.
//
// Returns:
//   - similarity.Result: The match percentage and counts.
//   - error: similarity.ErrDimensionMismatch when the target could not be
//     produced at the result's size, or a load error.
func (g *Game) Score(ctx context.Context) (similarity.Result, error) {
	result, err := g.Result(ctx)
	if err != nil {
		return similarity.Result{}, err
	}
	target, err := g.Target(ctx, result.Width, result.Height)
	if err != nil {
		return similarity.Result{}, err
	}
	res, err := similarity.Compare(result, target, g.scoring)
	if err != nil {
		return similarity.Result{}, err
	}
	g.logger.WithFields(logrus.Fields{
		"image": g.image,
		"score": res.Score,
	}).Debug("scored puzzle")
	return res, nil
}
