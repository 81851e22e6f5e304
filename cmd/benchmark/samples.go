package main

// Sample represents a benchmark text sample.
type Sample struct {
	Name string
	Text string
}

// Samples are news and review texts at varying lengths, in the style of the
// AG_NEWS and IMDB datasets the service ships with.
var Samples = []Sample{
	{
		Name: "tiny",
		Text: "Good movie, great cast!",
	},
	{
		Name: "short",
		Text: "Stocks rise as market shrugs off oil prices. Wall Street closed higher on Tuesday as investors bet that the recent jump in crude would not last.",
	},
	{
		Name: "medium",
		Text: `I went in expecting a quick, funny film and got something much better. The story is small and quiet, but the lead actor gives a superb performance and the script never talks down to the audience. The second half drags a little, and one subplot with the neighbour goes nowhere, but the ending works and I left the cinema happy. Good pacing, good music, and a cast that clearly enjoyed making it.`,
	},
	{
		Name: "long",
		Text: `Scientists report that a new small satellite launched last week has begun sending back its first images of the polar ice sheets. The craft, built by a team of university researchers on a tight budget, carries a camera that can measure changes in ice thickness down to a few centimetres. Officials said the data will be shared with climate groups around the world within days of collection.

The launch comes as several countries increase spending on space programs aimed at tracking the effects of rising temperatures. A report published on Monday found that the loss of sea ice in the Arctic has sped up over the past decade, with summer coverage at its lowest level since records began. Researchers warned that the trend could change weather patterns far from the poles.

Company officials involved in building the launcher said the mission shows how quickly costs have fallen. Ten years ago a project of this size would have needed a large government agency behind it. Today a small firm and a university lab can put a working satellite into orbit for a fraction of the price.`,
	},
}
