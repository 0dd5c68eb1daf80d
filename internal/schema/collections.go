package schema

import "github.com/Rana718/pbinit/internal/types"

const (
	mb5   = 5 * 1024 * 1024
	mb100 = 100 * 1024 * 1024
)

func init() {
	Register(usersCollection)
	Register(auditLogsCollection)
	Register(apiKeysCollection)
	Register(friendsCollection)
	Register(messagesCollection)
	Register(classifiedsCollection)
	Register(eventsCollection)
	Register(mediaCollection)
	Register(creditsCollection)
	Register(worldsCollection)
	Register(learningProgressCollection)
	Register(betaAccessCollection)
}

func usersCollection() types.CollectionDefinition {
	return collection("users", types.KindAuth,
		text("username", required(), minMax(3, 50)),
		file("avatar", 1, mb5),
		boolean("isGodMode", defaults(false)),
		text("role", defaults("user")),
		date("last_login"),
		text("last_ip"),
		jsonField("preferences"),
		text("bio", maxOnly(500)),
		text("location", maxOnly(100)),
		urlField("website"),
		jsonField("social_links"),
	)
}

func auditLogsCollection() types.CollectionDefinition {
	return collection("audit_logs", types.KindBase,
		relation("user", "users", 1, required()),
		text("action", required()),
		text("resource", required()),
		jsonField("details"),
		text("ip_address"),
		text("user_agent"),
		date("timestamp", required()),
	)
}

func apiKeysCollection() types.CollectionDefinition {
	return collection("api_keys", types.KindBase,
		text("name", required()),
		text("service", required()),
		text("encrypted_key", required()),
		boolean("is_active", defaults(true)),
		relation("created_by", "users", 1, required()),
		date("last_used"),
		number("usage_count", defaults(0)),
	)
}

func friendsCollection() types.CollectionDefinition {
	return collection("friends", types.KindBase,
		relation("user", "users", 1, required()),
		relation("friend", "users", 1, required()),
		selectOf("status", []string{"pending", "accepted", "blocked"}, required()),
		date("requested_at", required()),
		date("accepted_at"),
	)
}

func messagesCollection() types.CollectionDefinition {
	return collection("messages", types.KindBase,
		relation("sender", "users", 1, required()),
		relation("recipient", "users", 1, required()),
		text("content", required()),
		jsonField("media_links"),
		boolean("is_read", defaults(false)),
		text("thread_id"),
		relation("reply_to", "messages", 1),
	)
}

func classifiedsCollection() types.CollectionDefinition {
	return collection("classifieds", types.KindBase,
		relation("user", "users", 1, required()),
		text("title", required()),
		text("description", required()),
		selectOf("category", []string{
			"musicians_available", "musicians_wanted", "bands_available",
			"bands_wanted", "equipment", "services",
		}, required()),
		text("genre"),
		selectOf("experience_level", []string{"beginner", "intermediate", "advanced", "professional"}),
		text("location"),
		text("age_range"),
		jsonField("influences"),
		jsonField("media_links"),
		jsonField("contact_info"),
		boolean("is_active", defaults(true)),
		date("expires_at"),
	)
}

func eventsCollection() types.CollectionDefinition {
	return collection("events", types.KindBase,
		relation("organizer", "users", 1, required()),
		text("title", required()),
		text("description", required()),
		selectOf("event_type", []string{
			"concert", "jam_session", "workshop", "competition", "networking", "other",
		}, required()),
		text("venue"),
		text("address"),
		date("start_date", required()),
		date("end_date"),
		number("price"),
		number("max_attendees"),
		jsonField("genres"),
		jsonField("media_links"),
		boolean("is_public", defaults(true)),
	)
}

func mediaCollection() types.CollectionDefinition {
	return collection("media", types.KindBase,
		relation("user", "users", 1, required()),
		text("title", required()),
		text("description"),
		selectOf("type", []string{"image", "audio", "video", "document", "external_link"}, required()),
		file("file", 1, mb100),
		urlField("external_url"),
		jsonField("tags"),
		text("folder"),
		boolean("is_public", defaults(false)),
		jsonField("metadata"),
		boolean("ai_generated", defaults(false)),
		text("ai_model"),
	)
}

func creditsCollection() types.CollectionDefinition {
	return collection("credits", types.KindBase,
		relation("user", "users", 1, required()),
		text("project_title", required()),
		text("role", required()),
		text("description"),
		relation("collaborators", "users", 10),
		relation("media_references", "media", 20),
		relation("world_id", "worlds", 1),
		date("completion_date"),
		boolean("is_featured", defaults(false)),
		jsonField("tags"),
	)
}

func worldsCollection() types.CollectionDefinition {
	return collection("worlds", types.KindBase,
		relation("creator", "users", 1, required()),
		text("title", required()),
		text("description", required()),
		text("theme"),
		relation("collaborators", "users", 50),
		relation("media_collection", "media", 100),
		relation("credits_collection", "credits", 100),
		boolean("is_public", defaults(true)),
		file("featured_image", 1, mb5),
		jsonField("tags"),
	)
}

func learningProgressCollection() types.CollectionDefinition {
	return collection("learning_progress", types.KindBase,
		relation("user", "users", 1, required()),
		text("course_id", required()),
		text("lesson_id"),
		number("progress_percentage", minMax(0, 100)),
		number("xp_earned", defaults(0)),
		jsonField("badges"),
		date("completed_at"),
		jsonField("quiz_scores"),
		number("time_spent", defaults(0)),
	)
}

func betaAccessCollection() types.CollectionDefinition {
	return collection("beta_access", types.KindBase,
		relation("user", "users", 1, required()),
		text("feature_name", required()),
		relation("granted_by", "users", 1, required()),
		date("granted_at", required()),
		date("expires_at"),
		boolean("is_active", defaults(true)),
		text("feedback"),
	)
}
