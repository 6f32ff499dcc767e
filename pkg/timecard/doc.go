// Package timecard extracts attendance data from time card images and saves
// the image with its extracted JSON.
//
// Quick start:
//
//	tc, err := timecard.New(
//	    timecard.WithHTTPExtractor("https://extract.example.com/timecard"),
//	    timecard.WithSupabase(os.Getenv("SUPABASE_URL"), os.Getenv("SUPABASE_ANON_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tc.Close()
//
//	data, saved, err := tc.ExtractAndSave(ctx, "card.jpg", image)
//	fmt.Println(data.UI())
//
// A Timecard is safe for concurrent use.
package timecard
