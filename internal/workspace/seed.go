package workspace

// seedUsers are the two fixed login profiles.
func seedUsers() []User {
	return []User{
		{
			ID:        "1",
			Name:      "Alex Starr (Admin)",
			Email:     "alex.starr@example.com",
			Role:      RoleAdmin,
			Coins:     1250,
			AvatarURL: "https://i.pravatar.cc/150?u=alexstarr",
		},
		{
			ID:        "2",
			Name:      "Casey Lane (Member)",
			Email:     "casey.lane@example.com",
			Role:      RoleMember,
			Coins:     380,
			AvatarURL: "https://i.pravatar.cc/150?u=caseylane",
		},
	}
}

func seedActionPoints() []ActionPoint {
	return []ActionPoint{
		{
			ID:         "ap1",
			MeetingID:  "m1",
			Title:      "Draft Q3 Marketing Plan",
			Details:    "Prepare initial draft of the marketing plan focusing on new social media channels.",
			AssignedTo: "Casey Lane",
			Priority:   PriorityHigh,
			Status:     StatusInProgress,
		},
		{
			ID:         "ap2",
			MeetingID:  "m1",
			Title:      "Update Client Onboarding Docs",
			Details:    "Incorporate feedback from the last client workshop into the onboarding documentation.",
			AssignedTo: "Alex Starr",
			Priority:   PriorityMedium,
			Status:     StatusCompleted,
		},
		{
			ID:         "ap3",
			MeetingID:  "m1",
			Title:      "Research Competitor APIs",
			Details:    "Analyze the public APIs of our top 3 competitors and document key features.",
			AssignedTo: "Casey Lane",
			Priority:   PriorityHigh,
			Status:     StatusPending,
		},
		{
			ID:         "ap4",
			MeetingID:  "m2",
			Title:      `Finalize Budget for "Project Phoenix"`,
			Details:    "Review all department estimates and finalize the total budget for approval.",
			AssignedTo: "Alex Starr",
			Priority:   PriorityHigh,
			Status:     StatusCompleted,
		},
		{
			ID:         "ap5",
			MeetingID:  "m2",
			Title:      "Design User Profile Mockups",
			Details:    "Create high-fidelity mockups for the new user profile page, including mobile views.",
			AssignedTo: "Casey Lane",
			Priority:   PriorityMedium,
			Status:     StatusInProgress,
		},
		{
			ID:         "ap6",
			MeetingID:  "m3",
			Title:      "Schedule Sprint Planning Session",
			Details:    "Coordinate with the dev team to schedule the next sprint planning meeting.",
			AssignedTo: "Alex Starr",
			Priority:   PriorityLow,
			Status:     StatusCompleted,
		},
	}
}

func seedMeetings() []Meeting {
	return []Meeting{
		{
			ID:    "m1",
			Title: "Q3 Marketing Strategy Sync",
			Date:  "2024-07-22",
			Summary: "Discussed the overall strategy for the upcoming quarter, focusing on expanding our reach " +
				"through new social media platforms. Key decisions were made regarding content pillars and " +
				"influencer collaborations. Several action items were assigned to kickstart the process.",
		},
		{
			ID:    "m2",
			Title: "Project Phoenix - Budget Review",
			Date:  "2024-07-20",
			Summary: `A detailed review of the proposed budget for "Project Phoenix". The team analyzed costs ` +
				"across departments and identified areas for potential savings. The budget was approved pending " +
				"final mockups from the design team.",
		},
		{
			ID:    "m3",
			Title: "Weekly Team Stand-up",
			Date:  "2024-07-18",
			Summary: "Standard weekly check-in. Team members provided updates on their ongoing tasks. No major " +
				"blockers were identified. Confirmed schedule for the next sprint planning session.",
		},
	}
}
