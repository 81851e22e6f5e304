package cli

import (
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/config"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/dataset"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/embedding"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/handler"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/lexicon"
)

var demoSynonyms = map[string][]string{
	"quick":    {"fast", "speedy", "rapid"},
	"fast":     {"quick", "speedy"},
	"good":     {"fine", "great", "decent"},
	"great":    {"excellent", "good", "superb"},
	"bad":      {"poor", "awful", "terrible"},
	"movie":    {"film", "picture"},
	"film":     {"movie", "picture"},
	"market":   {"exchange", "marketplace"},
	"stocks":   {"shares", "equities"},
	"rise":     {"climb", "increase"},
	"fall":     {"drop", "decline"},
	"team":     {"squad", "side"},
	"win":      {"victory", "triumph"},
	"company":  {"firm", "business"},
	"report":   {"study", "account"},
	"new":      {"fresh", "novel"},
	"big":      {"large", "huge"},
	"small":    {"little", "tiny"},
	"story":    {"tale", "narrative"},
	"actor":    {"performer", "player"},
	"boring":   {"dull", "tedious"},
	"funny":    {"amusing", "comic"},
}

var demoVectors = []embedding.Vector{
	{Token: "the", Values: []float32{0.1, 0.0, 0.0, 0.1}},
	{Token: "good", Values: []float32{0.8, 0.1, 0.0, 0.3}},
	{Token: "great", Values: []float32{0.9, 0.2, 0.0, 0.3}},
	{Token: "bad", Values: []float32{-0.8, 0.1, 0.0, 0.2}},
	{Token: "movie", Values: []float32{0.0, 0.9, 0.1, 0.0}},
	{Token: "film", Values: []float32{0.0, 0.8, 0.2, 0.0}},
	{Token: "market", Values: []float32{0.1, 0.0, 0.9, 0.1}},
	{Token: "stocks", Values: []float32{0.0, 0.1, 0.8, 0.2}},
	{Token: ".", Values: []float32{0.0, 0.0, 0.0, 0.5}},
	{Token: "!", Values: []float32{0.2, 0.0, 0.0, 0.6}},
}

var demoAGNews = []dataset.Record{
	{Label: "3", Text: "Stocks rise as market shrugs off oil prices. Wall Street closed higher on Tuesday."},
	{Label: "3", Text: "Tech company posts big quarterly profit on strong cloud sales."},
	{Label: "2", Text: "Home team wins the final in a quick second half comeback."},
	{Label: "2", Text: "Veteran striker signs new two year deal with the club."},
	{Label: "1", Text: "Leaders meet for talks on trade and border security."},
	{Label: "1", Text: "Floods force thousands from their homes after a week of rain."},
	{Label: "4", Text: "Scientists report a new small satellite launched into orbit."},
	{Label: "4", Text: "New browser release promises fast page loads and better privacy."},
}

var demoIMDB = []dataset.Record{
	{Label: "pos", Text: "A great movie with a funny script and a good cast. I loved it!"},
	{Label: "pos", Text: "The lead actor gives a superb performance in this small, quiet film."},
	{Label: "pos", Text: "Good story, good pacing, and an ending that works."},
	{Label: "neg", Text: "A boring film. The story goes nowhere and the jokes fall flat."},
	{Label: "neg", Text: "Bad acting and a dull plot make this movie hard to finish."},
	{Label: "neg", Text: "Too long, too loud, and not nearly as funny as the trailer."},
}

// buildDemoApp wires the services to in-memory data so the API runs with
// no files on disk.
func buildDemoApp(c config.Config) (*app, error) {
	a := &app{backends: make(map[string]handler.Checker)}

	lex := lexicon.NewMapLexicon(demoSynonyms)
	a.backends["lexicon"] = lex

	vectors := embedding.NewMemoryStore(4)
	if err := vectors.PutBatch(demoVectors); err != nil {
		return nil, err
	}
	a.backends["embeddings"] = vectors

	catalog, err := dataset.NewCatalog(
		dataset.Entry{Name: "AG_NEWS", Source: &dataset.MemorySource{Records: demoAGNews}},
		dataset.Entry{Name: "IMDB", Source: &dataset.MemorySource{Records: demoIMDB}},
	)
	if err != nil {
		return nil, err
	}
	a.backends["datasets"] = catalog

	if err := a.finish(c, lex, lexicon.DefaultStopwords(), vectors, catalog); err != nil {
		return nil, err
	}
	return a, nil
}
